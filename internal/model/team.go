package model

import (
	"fmt"
)

// TeamID is a dense index into a League's teams, assigned in pot order.
type TeamID int

// NoTeam marks an unfilled slot.
const NoTeam TeamID = -1

// Pot is a 1-based seeding pot number.
type Pot int

// Direction says which side of a slot pair is meant. A team's Home opponent
// is the team it hosts; its Away opponent is the team that hosts it.
type Direction int

const (
	Home Direction = iota
	Away
)

// Opposite returns the direction the other team sees for the same match.
func (d Direction) Opposite() Direction {
	if d == Home {
		return Away
	}
	return Home
}

func (d Direction) String() string {
	if d == Home {
		return "home"
	}
	return "away"
}

// Team is a participant in the draw.
type Team struct {
	ID          TeamID
	Name        string
	Country     string
	Pot         Pot
	Elo         float64
	Coefficient float64
}

// Rules are the league-wide constraints beyond the pot structure.
type Rules struct {
	// MaxPerCountry caps how many opponents from one country a team may face.
	// Zero disables the cap.
	MaxPerCountry int
}

// League is the immutable set of pots and teams a draw runs over.
type League struct {
	teams  []Team
	pots   [][]TeamID
	byName map[string]TeamID
	rules  Rules
}

// NewLeague builds a League from teams grouped by pot. IDs and pot numbers
// are assigned here; whatever the caller put in those fields is ignored.
// IDs are dense in pot order, so pot p holds IDs (p-1)*size up to p*size-1.
func NewLeague(pots [][]Team, rules Rules) (*League, error) {
	if len(pots) == 0 {
		return nil, fmt.Errorf("at least one pot is required")
	}
	size := len(pots[0])
	if size < 3 {
		return nil, fmt.Errorf("pot 1 has %d teams, need at least 3", size)
	}
	if rules.MaxPerCountry < 0 {
		return nil, fmt.Errorf("max per country must not be negative, got %d", rules.MaxPerCountry)
	}

	l := &League{
		byName: make(map[string]TeamID),
		rules:  rules,
	}
	for pi, pot := range pots {
		if len(pot) != size {
			return nil, fmt.Errorf("pot %d has %d teams, want %d like pot 1", pi+1, len(pot), size)
		}
		ids := make([]TeamID, 0, size)
		for _, t := range pot {
			if t.Name == "" {
				return nil, fmt.Errorf("pot %d has a team with no name", pi+1)
			}
			if t.Country == "" {
				return nil, fmt.Errorf("team %q has no country", t.Name)
			}
			if _, ok := l.byName[t.Name]; ok {
				return nil, fmt.Errorf("team %q appears more than once", t.Name)
			}
			t.ID = TeamID(len(l.teams))
			t.Pot = Pot(pi + 1)
			l.teams = append(l.teams, t)
			l.byName[t.Name] = t.ID
			ids = append(ids, t.ID)
		}
		l.pots = append(l.pots, ids)
	}
	return l, nil
}

func (l *League) Team(id TeamID) Team { return l.teams[id] }

// Teams returns a copy of all teams in ID order.
func (l *League) Teams() []Team {
	out := make([]Team, len(l.teams))
	copy(out, l.teams)
	return out
}

func (l *League) NumTeams() int { return len(l.teams) }
func (l *League) NumPots() int  { return len(l.pots) }
func (l *League) PotSize() int  { return len(l.pots[0]) }
func (l *League) Rules() Rules  { return l.rules }

// Pot returns the team IDs of pot p in listed order.
func (l *League) Pot(p Pot) []TeamID {
	out := make([]TeamID, len(l.pots[p-1]))
	copy(out, l.pots[p-1])
	return out
}

// ValidPot reports whether p names one of the league's pots.
func (l *League) ValidPot(p Pot) bool {
	return p >= 1 && int(p) <= len(l.pots)
}

// Lookup finds a team by name.
func (l *League) Lookup(name string) (TeamID, bool) {
	id, ok := l.byName[name]
	return id, ok
}
