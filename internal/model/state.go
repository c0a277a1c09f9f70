package model

import (
	"errors"
	"fmt"
)

// ErrInvalidCommit is matched by every *InvalidCommitError.
var ErrInvalidCommit = errors.New("invalid commit")

// InvalidCommitError reports a commit that would break slot bookkeeping.
// Admissibility checks should make it unreachable.
type InvalidCommitError struct {
	Team   TeamID
	Pot    Pot
	Home   TeamID
	Away   TeamID
	Reason string
}

func (e *InvalidCommitError) Error() string {
	return fmt.Sprintf("invalid commit for team %d, pot %d (home %d, away %d): %s",
		e.Team, e.Pot, e.Home, e.Away, e.Reason)
}

func (e *InvalidCommitError) Is(target error) bool { return target == ErrInvalidCommit }

// Matchup is a (home, away) opponent pair from one pot, as seen by the team
// drawing it: the team hosts Home and visits Away.
type Matchup struct {
	Home TeamID
	Away TeamID
}

// PotOpponents is one team's slot pair against one pot.
type PotOpponents struct {
	Pot  Pot
	Home TeamID
	Away TeamID
}

// State is the mutable slot table of one draw.
//
// slots holds, for every team, pot and direction, the opponent filling that
// slot or NoTeam. filled counts filled slot halves per (team pot, opponent
// pot); a pot pair is done when it reaches 2 × pot size.
type State struct {
	league *League
	slots  []TeamID
	filled []int
	links  int
}

// Snapshot is an opaque copy of a State's mutable parts.
type Snapshot struct {
	slots  []TeamID
	filled []int
	links  int
}

func NewState(l *League) *State {
	s := &State{
		league: l,
		slots:  make([]TeamID, l.NumTeams()*l.NumPots()*2),
		filled: make([]int, l.NumPots()*l.NumPots()),
	}
	for i := range s.slots {
		s.slots[i] = NoTeam
	}
	return s
}

func (s *State) League() *League { return s.league }

func (s *State) slot(t TeamID, p Pot, d Direction) int {
	return (int(t)*s.league.NumPots()+int(p-1))*2 + int(d)
}

// Opponent returns the team filling t's d slot against pot p, or NoTeam.
func (s *State) Opponent(t TeamID, p Pot, d Direction) TeamID {
	return s.slots[s.slot(t, p, d)]
}

// OpenSlot reports whether t still needs a d opponent from pot p.
func (s *State) OpenSlot(t TeamID, p Pot, d Direction) bool {
	return s.Opponent(t, p, d) == NoTeam
}

// Opponents returns t's slot pairs for every pot in pot order.
func (s *State) Opponents(t TeamID) []PotOpponents {
	out := make([]PotOpponents, s.league.NumPots())
	for i := range out {
		p := Pot(i + 1)
		out[i] = PotOpponents{Pot: p, Home: s.Opponent(t, p, Home), Away: s.Opponent(t, p, Away)}
	}
	return out
}

// HasFaced reports whether a and b are already paired in either direction.
func (s *State) HasFaced(a, b TeamID) bool {
	base := int(a) * s.league.NumPots() * 2
	for i := 0; i < s.league.NumPots()*2; i++ {
		if s.slots[base+i] == b {
			return true
		}
	}
	return false
}

// countryCount counts t's opponents from country c.
func (s *State) countryCount(t TeamID, c string) int {
	base := int(t) * s.league.NumPots() * 2
	n := 0
	for i := 0; i < s.league.NumPots()*2; i++ {
		if o := s.slots[base+i]; o != NoTeam && s.league.teams[o].Country == c {
			n++
		}
	}
	return n
}

// Filled returns the filled slot halves of teams in teamPot against opponentPot.
func (s *State) Filled(teamPot, opponentPot Pot) int {
	return s.filled[int(teamPot-1)*s.league.NumPots()+int(opponentPot-1)]
}

// Links returns the number of matches recorded so far.
func (s *State) Links() int { return s.links }

// Complete reports whether every slot of every team is filled.
func (s *State) Complete() bool {
	return s.links == s.league.NumTeams()*s.league.NumPots()
}

// CanLink reports whether host may newly host guest: both slots are open,
// they are different teams from different countries, they have not met, and
// neither would exceed the per-country cap.
func (s *State) CanLink(host, guest TeamID) bool {
	if host == guest {
		return false
	}
	h, g := s.league.teams[host], s.league.teams[guest]
	if h.Country == g.Country {
		return false
	}
	if !s.OpenSlot(host, g.Pot, Home) || !s.OpenSlot(guest, h.Pot, Away) {
		return false
	}
	if s.HasFaced(host, guest) {
		return false
	}
	if limit := s.league.rules.MaxPerCountry; limit > 0 {
		if s.countryCount(host, g.Country) >= limit || s.countryCount(guest, h.Country) >= limit {
			return false
		}
	}
	return true
}

// IsAdmissiblePair reports whether current may take home and away from their
// pot. A side already recorded in current's slot pair is accepted as is;
// earlier draws can fix one or both sides.
func (s *State) IsAdmissiblePair(current, home, away TeamID) bool {
	if home == away || home == current || away == current {
		return false
	}
	hp, ap := s.league.teams[home].Pot, s.league.teams[away].Pot
	if hp != ap {
		return false
	}

	fixedHome := s.Opponent(current, hp, Home)
	newHome := fixedHome == NoTeam
	if !newHome && fixedHome != home {
		return false
	}
	fixedAway := s.Opponent(current, hp, Away)
	newAway := fixedAway == NoTeam
	if !newAway && fixedAway != away {
		return false
	}

	if newHome && !s.CanLink(current, home) {
		return false
	}
	if newAway && !s.CanLink(away, current) {
		return false
	}

	// Each CanLink sees current's country count before the other link lands.
	if limit := s.league.rules.MaxPerCountry; limit > 0 && newHome && newAway {
		c := s.league.teams[home].Country
		if s.league.teams[away].Country == c && s.countryCount(current, c)+2 > limit {
			return false
		}
	}
	return true
}

// Matchups lists every admissible (home, away) pair for current from pot p,
// ordered by home then away ID.
func (s *State) Matchups(current TeamID, p Pot) []Matchup {
	homes := s.sideCandidates(current, p, Home)
	aways := s.sideCandidates(current, p, Away)

	var out []Matchup
	for _, h := range homes {
		for _, a := range aways {
			if s.IsAdmissiblePair(current, h, a) {
				out = append(out, Matchup{Home: h, Away: a})
			}
		}
	}
	return out
}

// sideCandidates returns the fixed opponent for one side, or every team of
// pot p that could newly fill it.
func (s *State) sideCandidates(current TeamID, p Pot, d Direction) []TeamID {
	if fixed := s.Opponent(current, p, d); fixed != NoTeam {
		return []TeamID{fixed}
	}
	var out []TeamID
	for _, t := range s.league.pots[p-1] {
		ok := false
		if d == Home {
			ok = s.CanLink(current, t)
		} else {
			ok = s.CanLink(t, current)
		}
		if ok {
			out = append(out, t)
		}
	}
	return out
}

// Link records host hosting guest on both sides and bumps the counters.
func (s *State) Link(host, guest TeamID) error {
	if host == guest {
		return &InvalidCommitError{Team: host, Home: guest, Away: NoTeam, Reason: "team paired with itself"}
	}
	h, g := s.league.teams[host], s.league.teams[guest]
	if !s.OpenSlot(host, g.Pot, Home) {
		return &InvalidCommitError{Team: host, Pot: g.Pot, Home: guest, Away: NoTeam,
			Reason: fmt.Sprintf("%s already hosts %s from pot %d", h.Name, s.league.teams[s.Opponent(host, g.Pot, Home)].Name, g.Pot)}
	}
	if !s.OpenSlot(guest, h.Pot, Away) {
		return &InvalidCommitError{Team: host, Pot: g.Pot, Home: guest, Away: NoTeam,
			Reason: fmt.Sprintf("%s already visits %s from pot %d", g.Name, s.league.teams[s.Opponent(guest, h.Pot, Away)].Name, h.Pot)}
	}
	s.link(host, guest)
	return nil
}

func (s *State) link(host, guest TeamID) {
	hp, gp := s.league.teams[host].Pot, s.league.teams[guest].Pot
	s.slots[s.slot(host, gp, Home)] = guest
	s.slots[s.slot(guest, hp, Away)] = host
	n := s.league.NumPots()
	s.filled[int(hp-1)*n+int(gp-1)]++
	s.filled[int(gp-1)*n+int(hp-1)]++
	s.links++
}

// Commit records home and away as current's opponents from pot p, and
// current as home's away opponent and away's home opponent. Sides already
// holding the same team are left alone. Nothing is written unless both sides
// check out.
func (s *State) Commit(current TeamID, p Pot, home, away TeamID) error {
	fail := func(reason string) error {
		return &InvalidCommitError{Team: current, Pot: p, Home: home, Away: away, Reason: reason}
	}
	if !s.league.ValidPot(p) {
		return fail("unknown pot")
	}
	if home == away {
		return fail("home and away opponent are the same team")
	}
	if home == current || away == current {
		return fail("team paired with itself")
	}
	if s.league.teams[home].Pot != p || s.league.teams[away].Pot != p {
		return fail("opponent not in pot")
	}

	cp := s.league.teams[current].Pot
	linkHome, linkAway := false, false
	switch s.Opponent(current, p, Home) {
	case home:
	case NoTeam:
		if !s.OpenSlot(home, cp, Away) {
			return fail("home opponent already has an away opponent from this pot")
		}
		linkHome = true
	default:
		return fail("home slot already filled")
	}
	switch s.Opponent(current, p, Away) {
	case away:
	case NoTeam:
		if !s.OpenSlot(away, cp, Home) {
			return fail("away opponent already has a home opponent from this pot")
		}
		linkAway = true
	default:
		return fail("away slot already filled")
	}

	if linkHome {
		s.link(current, home)
	}
	if linkAway {
		s.link(away, current)
	}
	return nil
}

// Snapshot captures the slot table and counters.
func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		slots:  make([]TeamID, len(s.slots)),
		filled: make([]int, len(s.filled)),
		links:  s.links,
	}
	copy(snap.slots, s.slots)
	copy(snap.filled, s.filled)
	return snap
}

// Restore puts the state back to snap. snap must come from a State of the
// same league.
func (s *State) Restore(snap Snapshot) {
	copy(s.slots, snap.slots)
	copy(s.filled, snap.filled)
	s.links = snap.links
}

// Clone returns an independent copy.
func (s *State) Clone() *State {
	snap := s.Snapshot()
	return &State{league: s.league, slots: snap.slots, filled: snap.filled, links: snap.links}
}
