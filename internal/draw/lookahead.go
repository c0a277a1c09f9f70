package draw

import (
	"fmt"

	"github.com/JulienGuyon/UEFA-league-phase-draw/internal/model"
)

// Lookahead selects how hard the engine checks a candidate before keeping it.
type Lookahead string

const (
	// LookaheadNone keeps any admissible candidate; dead ends surface later
	// and are handled by backtracking.
	LookaheadNone Lookahead = "none"

	// LookaheadForward rejects a candidate that leaves some open slot, among
	// those it could have narrowed, without a possible partner.
	LookaheadForward Lookahead = "forward"

	// LookaheadComplete also runs a bounded exhaustive search for a full
	// completion and rejects the candidate when the search proves none exists.
	LookaheadComplete Lookahead = "complete"
)

func ParseLookahead(s string) (Lookahead, error) {
	switch Lookahead(s) {
	case LookaheadNone, LookaheadForward, LookaheadComplete:
		return Lookahead(s), nil
	case "":
		return LookaheadForward, nil
	default:
		return "", fmt.Errorf("unknown lookahead %q (want none, forward or complete)", s)
	}
}

// potTeams returns the IDs of pot p. IDs are dense in pot order.
func potTeams(l *model.League, p model.Pot) (first, end model.TeamID) {
	size := l.PotSize()
	first = model.TeamID(int(p-1) * size)
	return first, first + model.TeamID(size)
}

// slotsViable reports whether t's open slots against pot p each still have a
// partner, and two distinct ones when both are open.
func slotsViable(s *model.State, t model.TeamID, p model.Pot) bool {
	homeOpen := s.OpenSlot(t, p, model.Home)
	awayOpen := s.OpenSlot(t, p, model.Away)
	if !homeOpen && !awayOpen {
		return true
	}

	hc, ac := 0, 0
	lastH, lastA := model.NoTeam, model.NoTeam
	first, end := potTeams(s.League(), p)
	for u := first; u < end; u++ {
		if homeOpen && s.CanLink(t, u) {
			hc++
			lastH = u
		}
		if awayOpen && s.CanLink(u, t) {
			ac++
			lastA = u
		}
	}
	if (homeOpen && hc == 0) || (awayOpen && ac == 0) {
		return false
	}
	return !(homeOpen && awayOpen && hc == 1 && ac == 1 && lastH == lastA)
}

// viable is a necessary condition for completing the draw after current
// committed m: the three teams involved keep a partner for every open slot,
// and so does every team of the two pots against the other one.
func viable(s *model.State, current model.TeamID, m model.Matchup) bool {
	l := s.League()
	for _, t := range []model.TeamID{current, m.Home, m.Away} {
		for p := 1; p <= l.NumPots(); p++ {
			if !slotsViable(s, t, model.Pot(p)) {
				return false
			}
		}
	}

	cp, op := l.Team(current).Pot, l.Team(m.Home).Pot
	first, end := potTeams(l, cp)
	for t := first; t < end; t++ {
		if !slotsViable(s, t, op) {
			return false
		}
	}
	if op != cp {
		first, end = potTeams(l, op)
		for t := first; t < end; t++ {
			if !slotsViable(s, t, cp) {
				return false
			}
		}
	}
	return true
}

// completion searches depth-first for a way to fill every open slot of s,
// always branching on the open slot with the fewest partners. It mutates s
// and restores it before returning.
type completion struct {
	s      *model.State
	budget int
}

// run reports whether a completion exists. decided is false when the node
// budget ran out before the search could tell.
func (c *completion) run() (found, decided bool) {
	if c.s.Complete() {
		return true, true
	}
	if c.budget <= 0 {
		return false, false
	}
	c.budget--

	l := c.s.League()
	var (
		bestTeam model.TeamID
		bestDir  model.Direction
		best     []model.TeamID
		buf      []model.TeamID
	)
	bestLen := -1
scan:
	for t := model.TeamID(0); int(t) < l.NumTeams(); t++ {
		for p := 1; p <= l.NumPots(); p++ {
			for _, d := range []model.Direction{model.Home, model.Away} {
				if !c.s.OpenSlot(t, model.Pot(p), d) {
					continue
				}
				buf = buf[:0]
				first, end := potTeams(l, model.Pot(p))
				for u := first; u < end; u++ {
					if (d == model.Home && c.s.CanLink(t, u)) || (d == model.Away && c.s.CanLink(u, t)) {
						buf = append(buf, u)
					}
				}
				if len(buf) == 0 {
					return false, true
				}
				if bestLen < 0 || len(buf) < bestLen {
					bestTeam, bestDir, bestLen = t, d, len(buf)
					best = append(best[:0], buf...)
					if bestLen == 1 {
						break scan
					}
				}
			}
		}
	}

	for _, u := range best {
		snap := c.s.Snapshot()
		host, guest := bestTeam, u
		if bestDir == model.Away {
			host, guest = u, bestTeam
		}
		if err := c.s.Link(host, guest); err != nil {
			return false, true
		}
		found, decided := c.run()
		c.s.Restore(snap)
		if found {
			return true, true
		}
		if !decided {
			return false, false
		}
	}
	return false, true
}

// completable runs a completion search on a copy of s.
func completable(s *model.State, budget int) (found, decided bool) {
	c := &completion{s: s.Clone(), budget: budget}
	return c.run()
}
