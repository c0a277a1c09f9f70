package config

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/JulienGuyon/UEFA-league-phase-draw/internal/draw"
	"github.com/JulienGuyon/UEFA-league-phase-draw/internal/model"
	"github.com/JulienGuyon/UEFA-league-phase-draw/internal/strategy"
)

type Team struct {
	Name        string  `yaml:"name"`
	Country     string  `yaml:"country"`
	Elo         float64 `yaml:"elo"`
	Coefficient float64 `yaml:"coefficient"`
}

type Pot struct {
	Name  string `yaml:"name"`
	Teams []Team `yaml:"teams"`
}

type Rules struct {
	MaxOpponentsPerCountry int `yaml:"max_opponents_per_country"`
}

// Draw holds engine settings. Unset fields fall back to draw.DefaultOptions.
type Draw struct {
	Seed          *int64 `yaml:"seed"`
	TeamOrder     string `yaml:"team_order"`
	Lookahead     string `yaml:"lookahead"`
	MaxBacktracks *int   `yaml:"max_backtracks"`
	MaxRestarts   *int   `yaml:"max_restarts"`
	SearchBudget  *int   `yaml:"search_budget"`
}

type Config struct {
	Pots  []Pot `yaml:"pots"`
	Rules Rules `yaml:"rules"`
	Draw  Draw  `yaml:"draw"`
}

// AllTeams returns all team names across all pots.
func (c *Config) AllTeams() []string {
	var teams []string
	for _, p := range c.Pots {
		for _, t := range p.Teams {
			teams = append(teams, t.Name)
		}
	}
	return teams
}

// League builds the draw league described by the config.
func (c *Config) League() (*model.League, error) {
	pots := make([][]model.Team, len(c.Pots))
	for i, p := range c.Pots {
		for _, t := range p.Teams {
			pots[i] = append(pots[i], model.Team{
				Name:        t.Name,
				Country:     t.Country,
				Elo:         t.Elo,
				Coefficient: t.Coefficient,
			})
		}
	}
	l, err := model.NewLeague(pots, model.Rules{MaxPerCountry: c.Rules.MaxOpponentsPerCountry})
	if err != nil {
		return nil, fmt.Errorf("building league: %w", err)
	}
	return l, nil
}

// EngineOptions returns the engine options for the config. The seed is zero
// when the config leaves it unset; see Draw.Seed.
func (c *Config) EngineOptions(log *zap.Logger) (draw.Options, error) {
	opts := draw.DefaultOptions()
	opts.Logger = log

	order, err := strategy.Get(c.Draw.TeamOrder)
	if err != nil {
		return opts, err
	}
	opts.Order = order

	la, err := draw.ParseLookahead(c.Draw.Lookahead)
	if err != nil {
		return opts, err
	}
	opts.Lookahead = la

	if c.Draw.Seed != nil {
		opts.Seed = *c.Draw.Seed
	}
	if c.Draw.MaxBacktracks != nil {
		opts.MaxBacktracks = *c.Draw.MaxBacktracks
	}
	if c.Draw.MaxRestarts != nil {
		opts.MaxRestarts = *c.Draw.MaxRestarts
	}
	if c.Draw.SearchBudget != nil {
		opts.SearchBudget = *c.Draw.SearchBudget
	}
	return opts, nil
}

// LoadFromBytes parses YAML bytes into a Config and validates it.
func LoadFromBytes(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromFile reads and parses a YAML config file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromBytes(data)
}

func (c *Config) validate() error {
	if len(c.Pots) == 0 {
		return fmt.Errorf("at least one pot is required")
	}

	size := len(c.Pots[0].Teams)
	if size < 3 {
		return fmt.Errorf("pot %q has %d teams, need at least 3", c.Pots[0].Name, size)
	}

	// Check for duplicate team names
	seen := make(map[string]string)
	for _, pot := range c.Pots {
		if len(pot.Teams) != size {
			return fmt.Errorf("pot %q has %d teams but pot %q has %d; pots must be the same size",
				pot.Name, len(pot.Teams), c.Pots[0].Name, size)
		}
		for _, team := range pot.Teams {
			if team.Name == "" {
				return fmt.Errorf("pot %q has a team with no name", pot.Name)
			}
			if team.Country == "" {
				return fmt.Errorf("team %q has no country", team.Name)
			}
			if prevPot, ok := seen[team.Name]; ok {
				return fmt.Errorf("team %q appears in both %q and %q pots", team.Name, prevPot, pot.Name)
			}
			seen[team.Name] = pot.Name
		}
	}

	if c.Rules.MaxOpponentsPerCountry < 0 {
		return fmt.Errorf("max_opponents_per_country must not be negative")
	}

	if _, err := strategy.Get(c.Draw.TeamOrder); err != nil {
		return err
	}
	if _, err := draw.ParseLookahead(c.Draw.Lookahead); err != nil {
		return err
	}
	for name, v := range map[string]*int{
		"max_backtracks": c.Draw.MaxBacktracks,
		"max_restarts":   c.Draw.MaxRestarts,
		"search_budget":  c.Draw.SearchBudget,
	} {
		if v != nil && *v < 0 {
			return fmt.Errorf("draw.%s must not be negative, got %d", name, *v)
		}
	}
	if la, _ := draw.ParseLookahead(c.Draw.Lookahead); la == draw.LookaheadComplete &&
		c.Draw.SearchBudget != nil && *c.Draw.SearchBudget == 0 {
		return fmt.Errorf("draw.search_budget must be positive with complete lookahead")
	}

	return nil
}
