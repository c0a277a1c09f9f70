package draw

import (
	"errors"
	"fmt"

	"github.com/JulienGuyon/UEFA-league-phase-draw/internal/model"
)

var (
	// ErrNoAdmissibleCandidates means the partial draw has no valid extension
	// at one decision point. The engine recovers from it internally.
	ErrNoAdmissibleCandidates = errors.New("no admissible candidates")

	ErrDrawAlreadyComplete = errors.New("draw already complete")
	ErrOutOfOrder          = errors.New("out of order request")
	ErrNotComplete         = errors.New("draw not complete")

	// ErrInfeasible is matched by *InfeasibleError.
	ErrInfeasible = errors.New("draw infeasible")
)

// InfeasibleError reports a draw abandoned after its retry budget ran out.
type InfeasibleError struct {
	Attempts   int
	Backtracks int
	Deepest    int // most steps resolved in any attempt
	Steps      int // steps in a full draw
	StuckTeam  string
	StuckPot   model.Pot
}

func (e *InfeasibleError) Error() string {
	msg := fmt.Sprintf("%s after %d attempts and %d backtracks", ErrInfeasible, e.Attempts, e.Backtracks)
	msg += fmt.Sprintf("; best attempt resolved %d of %d steps", e.Deepest, e.Steps)
	if e.StuckTeam != "" {
		msg += fmt.Sprintf(", stuck on %s against pot %d", e.StuckTeam, e.StuckPot)
	}
	return msg
}

func (e *InfeasibleError) Is(target error) bool { return target == ErrInfeasible }
