package draw

import (
	"github.com/google/uuid"

	"github.com/JulienGuyon/UEFA-league-phase-draw/internal/model"
)

// Match is one fixture of the league phase.
type Match struct {
	Home model.TeamID
	Away model.TeamID
}

// Strength is the mean rating of a team's opponents.
type Strength struct {
	Elo         float64
	Coefficient float64
}

// Result is a finished draw. It does not change after the engine completes.
type Result struct {
	ID    uuid.UUID
	Seed  int64
	Stats Stats

	league    *model.League
	opponents [][]model.PotOpponents
}

func newResult(e *Engine) *Result {
	r := &Result{
		ID:        e.id,
		Seed:      e.opts.Seed,
		Stats:     e.stats,
		league:    e.league,
		opponents: make([][]model.PotOpponents, e.league.NumTeams()),
	}
	for i := range r.opponents {
		r.opponents[i] = e.state.Opponents(model.TeamID(i))
	}
	return r
}

func (r *Result) League() *model.League { return r.league }

// Opponents returns t's home and away opponent for every pot, in pot order.
func (r *Result) Opponents(t model.TeamID) []model.PotOpponents {
	out := make([]model.PotOpponents, len(r.opponents[t]))
	copy(out, r.opponents[t])
	return out
}

// Matches lists every fixture once, ordered by home team then opponent pot.
func (r *Result) Matches() []Match {
	var out []Match
	for t, row := range r.opponents {
		for _, po := range row {
			out = append(out, Match{Home: model.TeamID(t), Away: po.Home})
		}
	}
	return out
}

// OpponentStrength averages the Elo and coefficient of t's opponents.
func (r *Result) OpponentStrength(t model.TeamID) Strength {
	var s Strength
	n := 0
	for _, po := range r.opponents[t] {
		for _, u := range []model.TeamID{po.Home, po.Away} {
			team := r.league.Team(u)
			s.Elo += team.Elo
			s.Coefficient += team.Coefficient
			n++
		}
	}
	if n > 0 {
		s.Elo /= float64(n)
		s.Coefficient /= float64(n)
	}
	return s
}
