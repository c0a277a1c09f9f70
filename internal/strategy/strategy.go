package strategy

import (
	"fmt"
	"math/rand"

	"github.com/JulienGuyon/UEFA-league-phase-draw/internal/model"
)

const (
	NameListed   = "listed"
	NameShuffled = "shuffled"
)

// Strategy decides the order in which one pot's teams are drawn.
type Strategy interface {
	Order(pot []model.TeamID, rng *rand.Rand) []model.TeamID
}

// Get returns a Strategy by name.
func Get(name string) (Strategy, error) {
	switch name {
	case NameListed, "":
		return &Listed{}, nil
	case NameShuffled:
		return &Shuffled{}, nil
	default:
		return nil, fmt.Errorf("unknown team order: %q", name)
	}
}

// Listed keeps the order the pot was configured in.
type Listed struct{}

func (s *Listed) Order(pot []model.TeamID, _ *rand.Rand) []model.TeamID {
	out := make([]model.TeamID, len(pot))
	copy(out, pot)
	return out
}

// Shuffled draws the teams of a pot in random order, like balls out of a bowl.
type Shuffled struct{}

func (s *Shuffled) Order(pot []model.TeamID, rng *rand.Rand) []model.TeamID {
	out := make([]model.TeamID, len(pot))
	copy(out, pot)
	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// Sequence returns every team of the league in processing order: pots
// ascending, each pot ordered by s.
func Sequence(l *model.League, s Strategy, rng *rand.Rand) []model.TeamID {
	seq := make([]model.TeamID, 0, l.NumTeams())
	for p := 1; p <= l.NumPots(); p++ {
		seq = append(seq, s.Order(l.Pot(model.Pot(p)), rng)...)
	}
	return seq
}
