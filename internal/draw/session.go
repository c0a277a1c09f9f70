package draw

import (
	"fmt"

	"github.com/JulienGuyon/UEFA-league-phase-draw/internal/model"
)

// NamePair is a matchup by team name.
type NamePair struct {
	Home string
	Away string
}

// Session exposes an engine to a presentation layer that addresses teams by
// their position in the processing sequence and opponent pots by number.
type Session struct {
	e *Engine
}

func NewSession(e *Engine) *Session { return &Session{e: e} }

func (s *Session) Engine() *Engine { return s.e }

// SelectedTeamName names the team at sequence position index. Asking for the
// next position selects that team; earlier positions are plain lookups.
func (s *Session) SelectedTeamName(index int) (string, error) {
	if index < 0 || index >= len(s.e.order) {
		return "", fmt.Errorf("team index %d out of range [0, %d)", index, len(s.e.order))
	}
	if index <= s.e.teamIdx {
		return s.e.league.Team(s.e.order[index]).Name, nil
	}
	if index > s.e.teamIdx+1 {
		return "", fmt.Errorf("%w: team %d requested before team %d", ErrOutOfOrder, index, s.e.teamIdx+1)
	}
	team, err := s.e.NextTeam()
	if err != nil {
		return "", err
	}
	return team.Name, nil
}

// AdmissibleMatchups lists the candidate pairs for the team at teamIndex
// against opponent pot.
func (s *Session) AdmissibleMatchups(teamIndex, pot int) ([]NamePair, error) {
	id, err := s.teamAt(teamIndex)
	if err != nil {
		return nil, err
	}
	ms, err := s.e.AdmissibleMatchups(id, model.Pot(pot))
	if err != nil {
		return nil, err
	}
	out := make([]NamePair, len(ms))
	for i, m := range ms {
		out[i] = s.names(m)
	}
	return out, nil
}

// SelectMatchup draws and commits a pair for the team at teamIndex against
// opponent pot.
func (s *Session) SelectMatchup(teamIndex, pot int) (NamePair, error) {
	id, err := s.teamAt(teamIndex)
	if err != nil {
		return NamePair{}, err
	}
	m, err := s.e.DrawOpponents(id, model.Pot(pot))
	if err != nil {
		return NamePair{}, err
	}
	return s.names(m), nil
}

func (s *Session) teamAt(index int) (model.TeamID, error) {
	if index < 0 || index >= len(s.e.order) {
		return model.NoTeam, fmt.Errorf("team index %d out of range [0, %d)", index, len(s.e.order))
	}
	if s.e.failure != nil {
		return model.NoTeam, s.e.failure
	}
	if index != s.e.teamIdx {
		return model.NoTeam, fmt.Errorf("%w: team %d is not the current team", ErrOutOfOrder, index)
	}
	return s.e.order[index], nil
}

func (s *Session) names(m model.Matchup) NamePair {
	return NamePair{
		Home: s.e.league.Team(m.Home).Name,
		Away: s.e.league.Team(m.Away).Name,
	}
}
