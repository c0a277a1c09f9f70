package draw

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JulienGuyon/UEFA-league-phase-draw/internal/model"
	"github.com/JulienGuyon/UEFA-league-phase-draw/internal/strategy"
)

// Phase is where the engine stands in the per-team cycle
// SelectTeam → ShowOpponents → DrawOpponents.
type Phase int

const (
	PhaseSelectTeam Phase = iota
	PhaseShowOpponents
	PhaseDrawOpponents
	PhaseComplete
	PhaseInfeasible
)

func (p Phase) String() string {
	switch p {
	case PhaseSelectTeam:
		return "select team"
	case PhaseShowOpponents:
		return "show opponents"
	case PhaseDrawOpponents:
		return "draw opponents"
	case PhaseComplete:
		return "complete"
	case PhaseInfeasible:
		return "infeasible"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Options configure an Engine.
type Options struct {
	Seed  int64
	Order strategy.Strategy

	Lookahead Lookahead
	// SearchBudget caps the nodes of one completion search (LookaheadComplete).
	SearchBudget int

	// MaxBacktracks caps backtracks within one attempt before the draw
	// restarts from scratch; MaxRestarts caps the restarts.
	MaxBacktracks int
	MaxRestarts   int

	Logger *zap.Logger
}

// DefaultOptions returns the options used when a config leaves them unset.
func DefaultOptions() Options {
	return Options{
		Order:         &strategy.Listed{},
		Lookahead:     LookaheadForward,
		SearchBudget:  5000,
		MaxBacktracks: 2000,
		MaxRestarts:   25,
	}
}

// Stats counts the engine's internal recovery work.
type Stats struct {
	DeadEnds   int // decision points that ran out of candidates
	Backtracks int
	Restarts   int
	Rejected   int // candidates dropped by lookahead
}

// step is one (team, opponent pot) draw in the fixed sequence.
type step struct {
	team model.TeamID
	pot  model.Pot
}

// decision is a resolved step that can be revisited: the state before it
// and the candidates not tried yet.
type decision struct {
	pos       int
	snap      model.Snapshot
	remaining []model.Matchup
}

// Engine runs one draw. It is not safe for concurrent use; run independent
// draws on independent engines.
type Engine struct {
	id     uuid.UUID
	league *model.League
	opts   Options
	rng    *rand.Rand
	log    *zap.Logger

	order     []model.TeamID
	teamStart []int // first step of each team in order, plus len(steps)
	steps     []step

	state   *model.State
	pos     int // next unresolved step
	teamIdx int // index into order of the selected team, -1 before the first
	shown   bool
	offered []model.Matchup // candidates of step pos, once computed
	trail   []decision

	attempt    int
	backtracks int // within the current attempt
	deepest    int
	stuck      *step
	stats      Stats
	failure    *InfeasibleError
	result     *Result
}

// New creates an engine for a fresh draw of l.
func New(l *model.League, opts Options) (*Engine, error) {
	if opts.MaxBacktracks < 0 {
		return nil, fmt.Errorf("max backtracks must not be negative, got %d", opts.MaxBacktracks)
	}
	if opts.MaxRestarts < 0 {
		return nil, fmt.Errorf("max restarts must not be negative, got %d", opts.MaxRestarts)
	}
	if opts.Lookahead == "" {
		opts.Lookahead = LookaheadForward
	}
	if _, err := ParseLookahead(string(opts.Lookahead)); err != nil {
		return nil, err
	}
	if opts.Lookahead == LookaheadComplete && opts.SearchBudget <= 0 {
		return nil, fmt.Errorf("complete lookahead needs a positive search budget")
	}
	if opts.Order == nil {
		opts.Order = &strategy.Listed{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	e := &Engine{
		id:      uuid.New(),
		league:  l,
		opts:    opts,
		rng:     rand.New(rand.NewSource(opts.Seed)),
		state:   model.NewState(l),
		teamIdx: -1,
	}
	e.log = opts.Logger.With(zap.String("draw", e.id.String()), zap.Int64("seed", opts.Seed))

	e.order = strategy.Sequence(l, opts.Order, e.rng)
	for _, t := range e.order {
		e.teamStart = append(e.teamStart, len(e.steps))
		for p := l.Team(t).Pot; int(p) <= l.NumPots(); p++ {
			e.steps = append(e.steps, step{team: t, pot: p})
		}
	}
	e.teamStart = append(e.teamStart, len(e.steps))
	return e, nil
}

func (e *Engine) ID() uuid.UUID         { return e.id }
func (e *Engine) League() *model.League { return e.league }
func (e *Engine) Stats() Stats          { return e.stats }
func (e *Engine) IsComplete() bool      { return e.Phase() == PhaseComplete }

// State returns a copy of the partial draw.
func (e *Engine) State() *model.State { return e.state.Clone() }

// Order returns the teams in processing order.
func (e *Engine) Order() []model.Team {
	out := make([]model.Team, len(e.order))
	for i, t := range e.order {
		out[i] = e.league.Team(t)
	}
	return out
}

func (e *Engine) Phase() Phase {
	switch {
	case e.failure != nil:
		return PhaseInfeasible
	case e.pos == len(e.steps):
		return PhaseComplete
	case e.teamIdx < 0 || e.pos == e.teamStart[e.teamIdx+1]:
		return PhaseSelectTeam
	case e.shown:
		return PhaseDrawOpponents
	default:
		return PhaseShowOpponents
	}
}

// CurrentTeam returns the selected team, if any.
func (e *Engine) CurrentTeam() (model.Team, bool) {
	if e.teamIdx < 0 || e.failure != nil {
		return model.Team{}, false
	}
	return e.league.Team(e.order[e.teamIdx]), true
}

// OwedPots returns the opponent pots the selected team still has to draw.
func (e *Engine) OwedPots() []model.Pot {
	if e.teamIdx < 0 || e.failure != nil {
		return nil
	}
	var pots []model.Pot
	for i := e.pos; i < e.teamStart[e.teamIdx+1]; i++ {
		pots = append(pots, e.steps[i].pot)
	}
	return pots
}

// NextTeam selects the next team in processing order.
func (e *Engine) NextTeam() (model.Team, error) {
	switch e.Phase() {
	case PhaseComplete:
		return model.Team{}, ErrDrawAlreadyComplete
	case PhaseInfeasible:
		return model.Team{}, e.failure
	case PhaseShowOpponents, PhaseDrawOpponents:
		cur := e.league.Team(e.order[e.teamIdx])
		return model.Team{}, fmt.Errorf("%w: %s still owes pots %v", ErrOutOfOrder, cur.Name, e.OwedPots())
	}
	e.teamIdx++
	e.shown = false
	team := e.league.Team(e.order[e.teamIdx])
	e.log.Debug("team selected", zap.String("team", team.Name), zap.Int("pot", int(team.Pot)))
	return team, nil
}

// checkStep verifies that (team, p) is the step the engine expects next.
func (e *Engine) checkStep(team model.TeamID, p model.Pot) error {
	switch e.Phase() {
	case PhaseComplete:
		return ErrDrawAlreadyComplete
	case PhaseInfeasible:
		return e.failure
	case PhaseSelectTeam:
		return fmt.Errorf("%w: no team selected", ErrOutOfOrder)
	}
	cur := e.steps[e.pos]
	if team != cur.team {
		return fmt.Errorf("%w: current team is %s", ErrOutOfOrder, e.league.Team(cur.team).Name)
	}
	if p != cur.pot {
		return fmt.Errorf("%w: %s draws pot %d next, not pot %d", ErrOutOfOrder, e.league.Team(team).Name, cur.pot, p)
	}
	return nil
}

// AdmissibleMatchups lists the (home, away) pairs the current team can draw
// from opponent pot p: every admissible pair that also passes lookahead.
// DrawOpponents picks from exactly this list. When no pair survives, the
// engine backtracks or restarts before answering, which can revise picks
// already made; the list returned is never empty.
func (e *Engine) AdmissibleMatchups(team model.TeamID, p model.Pot) ([]model.Matchup, error) {
	if err := e.checkStep(team, p); err != nil {
		return nil, err
	}
	cands, err := e.offer()
	if err != nil {
		return nil, err
	}
	e.shown = true
	return append([]model.Matchup(nil), cands...), nil
}

// DrawOpponents picks one pair uniformly at random from AdmissibleMatchups
// and commits it.
func (e *Engine) DrawOpponents(team model.TeamID, p model.Pot) (model.Matchup, error) {
	if err := e.checkStep(team, p); err != nil {
		return model.Matchup{}, err
	}
	cands, err := e.offer()
	if err != nil {
		return model.Matchup{}, err
	}

	s := e.steps[e.pos]
	i := e.rng.Intn(len(cands))
	m := cands[i]
	rest := make([]model.Matchup, 0, len(cands)-1)
	rest = append(rest, cands[:i]...)
	rest = append(rest, cands[i+1:]...)
	e.rng.Shuffle(len(rest), func(a, b int) {
		rest[a], rest[b] = rest[b], rest[a]
	})

	snap := e.state.Snapshot()
	if err := e.commit(s, m); err != nil {
		return model.Matchup{}, err
	}
	e.trail = append(e.trail, decision{pos: e.pos, snap: snap, remaining: rest})
	e.pos++
	if e.pos > e.deepest {
		e.deepest = e.pos
	}
	e.offered = nil
	e.shown = false
	if e.pos == len(e.steps) {
		e.finish()
	}
	return m, nil
}

// Run plays the rest of the draw automatically.
func (e *Engine) Run() (*Result, error) {
	for {
		switch e.Phase() {
		case PhaseComplete:
			return e.Result()
		case PhaseInfeasible:
			return nil, e.failure
		case PhaseSelectTeam:
			if _, err := e.NextTeam(); err != nil {
				return nil, err
			}
		default:
			s := e.steps[e.pos]
			if _, err := e.DrawOpponents(s.team, s.pot); err != nil {
				return nil, err
			}
		}
	}
}

// Result returns the finished draw.
func (e *Engine) Result() (*Result, error) {
	switch e.Phase() {
	case PhaseComplete:
		return e.result, nil
	case PhaseInfeasible:
		return nil, e.failure
	default:
		return nil, ErrNotComplete
	}
}

// resolve replays steps until every step before target is done.
func (e *Engine) resolve(target int) error {
	for e.pos < target {
		err := e.advance()
		for errors.Is(err, ErrNoAdmissibleCandidates) {
			err = e.recover(err)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// offer returns the candidates for the current step, computing them once.
// A step without candidates is a dead end: the engine recovers and replays
// up to the step again until candidates exist or the draw is abandoned.
func (e *Engine) offer() ([]model.Matchup, error) {
	if e.offered != nil {
		return e.offered, nil
	}
	target := e.pos
	for {
		if err := e.resolve(target); err != nil {
			return nil, err
		}
		s := e.steps[e.pos]
		cands, err := e.candidates(s)
		if err != nil {
			return nil, err
		}
		if len(cands) > 0 {
			e.offered = cands
			return cands, nil
		}

		e.deadEnd(s, e.pos)
		err = e.recover(fmt.Errorf("%w: %s against pot %d", ErrNoAdmissibleCandidates, e.league.Team(s.team).Name, s.pot))
		for errors.Is(err, ErrNoAdmissibleCandidates) {
			err = e.recover(err)
		}
		if err != nil {
			return nil, err
		}
	}
}

// candidates returns the admissible pairs for s that pass lookahead, in
// (home, away) order.
func (e *Engine) candidates(s step) ([]model.Matchup, error) {
	var out []model.Matchup
	snap := e.state.Snapshot()
	for _, m := range e.state.Matchups(s.team, s.pot) {
		ok, err := e.tryCommit(s, m)
		e.state.Restore(snap)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, m)
		} else {
			e.stats.Rejected++
		}
	}
	return out, nil
}

// advance opens a decision for the next step and tries its candidates.
func (e *Engine) advance() error {
	s := e.steps[e.pos]
	cands := e.state.Matchups(s.team, s.pot)
	e.rng.Shuffle(len(cands), func(i, j int) {
		cands[i], cands[j] = cands[j], cands[i]
	})
	e.trail = append(e.trail, decision{pos: e.pos, snap: e.state.Snapshot(), remaining: cands})
	return e.tryTop()
}

// tryTop tries the remaining candidates of the newest decision in order.
// The candidates were shuffled once, so the first survivor is a uniform
// pick among all survivors. An exhausted decision is popped.
func (e *Engine) tryTop() error {
	d := &e.trail[len(e.trail)-1]
	s := e.steps[d.pos]
	for len(d.remaining) > 0 {
		m := d.remaining[0]
		d.remaining = d.remaining[1:]
		e.state.Restore(d.snap)
		ok, err := e.tryCommit(s, m)
		if err != nil {
			return err
		}
		if ok {
			e.pos = d.pos + 1
			if e.pos > e.deepest {
				e.deepest = e.pos
			}
			return nil
		}
		e.stats.Rejected++
	}

	e.state.Restore(d.snap)
	e.trail = e.trail[:len(e.trail)-1]
	e.deadEnd(s, d.pos)
	return fmt.Errorf("%w: %s against pot %d", ErrNoAdmissibleCandidates, e.league.Team(s.team).Name, s.pot)
}

func (e *Engine) deadEnd(s step, pos int) {
	e.stats.DeadEnds++
	if e.stuck == nil || pos >= e.deepest {
		e.stuck = &s
	}
}

func (e *Engine) commit(s step, m model.Matchup) error {
	if err := e.state.Commit(s.team, s.pot, m.Home, m.Away); err != nil {
		e.log.DPanic("commit rejected an admissible matchup",
			zap.String("team", e.league.Team(s.team).Name),
			zap.Int("pot", int(s.pot)),
			zap.Error(err))
		return fmt.Errorf("committing %s against pot %d: %w", e.league.Team(s.team).Name, s.pot, err)
	}
	return nil
}

// tryCommit commits m and reports whether the result passes lookahead.
func (e *Engine) tryCommit(s step, m model.Matchup) (bool, error) {
	if err := e.commit(s, m); err != nil {
		return false, err
	}

	switch e.opts.Lookahead {
	case LookaheadForward:
		return viable(e.state, s.team, m), nil
	case LookaheadComplete:
		if !viable(e.state, s.team, m) {
			return false, nil
		}
		found, decided := completable(e.state, e.opts.SearchBudget)
		return found || !decided, nil
	default:
		return true, nil
	}
}

// recover handles a dead end: backtrack into the newest open decision while
// the budget lasts, otherwise restart the draw.
func (e *Engine) recover(cause error) error {
	e.log.Debug("dead end", zap.Error(cause), zap.Int("step", e.pos), zap.Int("attempt", e.attempt))
	if len(e.trail) > 0 && e.backtracks < e.opts.MaxBacktracks {
		e.backtracks++
		e.stats.Backtracks++
		return e.tryTop()
	}
	return e.restart()
}

func (e *Engine) restart() error {
	if e.attempt >= e.opts.MaxRestarts {
		return e.abandon()
	}
	e.attempt++
	e.stats.Restarts++
	e.log.Debug("restarting draw", zap.Int("attempt", e.attempt), zap.Int("deepest", e.deepest))
	e.state = model.NewState(e.league)
	e.trail = e.trail[:0]
	e.offered = nil
	e.pos = 0
	e.backtracks = 0
	return nil
}

// abandon rolls the draw back to empty and marks it infeasible.
func (e *Engine) abandon() error {
	e.failure = &InfeasibleError{
		Attempts:   e.attempt + 1,
		Backtracks: e.stats.Backtracks,
		Deepest:    e.deepest,
		Steps:      len(e.steps),
	}
	if e.stuck != nil {
		e.failure.StuckTeam = e.league.Team(e.stuck.team).Name
		e.failure.StuckPot = e.stuck.pot
	}
	e.state = model.NewState(e.league)
	e.trail = nil
	e.offered = nil
	e.pos = 0
	e.teamIdx = -1
	e.shown = false
	e.log.Warn("draw abandoned", zap.Error(e.failure))
	return e.failure
}

func (e *Engine) finish() {
	e.trail = nil
	e.result = newResult(e)
	e.log.Debug("draw complete",
		zap.Int("dead_ends", e.stats.DeadEnds),
		zap.Int("backtracks", e.stats.Backtracks),
		zap.Int("restarts", e.stats.Restarts))
}
