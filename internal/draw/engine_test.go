package draw

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/JulienGuyon/UEFA-league-phase-draw/internal/model"
	"github.com/JulienGuyon/UEFA-league-phase-draw/internal/strategy"
)

// ucl2024 returns the 2024/25 Champions League pots.
func ucl2024(t testing.TB) *model.League {
	t.Helper()
	type club struct {
		name, country string
		coeff         float64
	}
	pots := [][]club{
		{
			{"Real Madrid", "ESP", 136}, {"Manchester City", "ENG", 148}, {"Bayern München", "GER", 144},
			{"Paris Saint-Germain", "FRA", 116}, {"Liverpool", "ENG", 114}, {"Inter", "ITA", 101},
			{"Borussia Dortmund", "GER", 97}, {"RB Leipzig", "GER", 97}, {"Barcelona", "ESP", 91},
		},
		{
			{"Bayer Leverkusen", "GER", 90}, {"Atlético de Madrid", "ESP", 89}, {"Atalanta", "ITA", 81},
			{"Juventus", "ITA", 80}, {"Benfica", "POR", 79}, {"Arsenal", "ENG", 72},
			{"Club Brugge", "BEL", 64}, {"Shakhtar Donetsk", "UKR", 63}, {"Milan", "ITA", 59},
		},
		{
			{"Feyenoord", "NED", 57}, {"Sporting CP", "POR", 54.5}, {"PSV Eindhoven", "NED", 54},
			{"Dinamo Zagreb", "CRO", 50}, {"Salzburg", "AUT", 50}, {"Lille", "FRA", 47},
			{"Crvena zvezda", "SRB", 40}, {"Young Boys", "SUI", 34.5}, {"Celtic", "SCO", 32},
		},
		{
			{"Slovan Bratislava", "SVK", 30.5}, {"Monaco", "FRA", 24}, {"Sparta Praha", "CZE", 22.5},
			{"Aston Villa", "ENG", 20.86}, {"Bologna", "ITA", 18.056}, {"Girona", "ESP", 17.897},
			{"VfB Stuttgart", "GER", 17.324}, {"Sturm Graz", "AUT", 14.5}, {"Brest", "FRA", 13.366},
		},
	}
	var teams [][]model.Team
	for _, pot := range pots {
		var row []model.Team
		for _, c := range pot {
			row = append(row, model.Team{Name: c.name, Country: c.country, Coefficient: c.coeff, Elo: 1500 + 2*c.coeff})
		}
		teams = append(teams, row)
	}
	l, err := model.NewLeague(teams, model.Rules{MaxPerCountry: 2})
	if err != nil {
		t.Fatalf("NewLeague() error: %v", err)
	}
	return l
}

// singlePot builds a one-pot league from (name, country) pairs.
func singlePot(t testing.TB, teams ...string) *model.League {
	t.Helper()
	var pot []model.Team
	for i := 0; i+1 < len(teams); i += 2 {
		pot = append(pot, model.Team{Name: teams[i], Country: teams[i+1]})
	}
	l, err := model.NewLeague([][]model.Team{pot}, model.Rules{})
	if err != nil {
		t.Fatalf("NewLeague() error: %v", err)
	}
	return l
}

func twoPots(t testing.TB) *model.League {
	t.Helper()
	l, err := model.NewLeague([][]model.Team{
		{{Name: "A1", Country: "ESP"}, {Name: "A2", Country: "ESP"}, {Name: "A3", Country: "ENG"}, {Name: "A4", Country: "GER"}},
		{{Name: "B1", Country: "ITA"}, {Name: "B2", Country: "FRA"}, {Name: "B3", Country: "ENG"}, {Name: "B4", Country: "POR"}},
	}, model.Rules{})
	if err != nil {
		t.Fatalf("NewLeague() error: %v", err)
	}
	return l
}

func newEngine(t testing.TB, l *model.League, opts Options) *Engine {
	t.Helper()
	e, err := New(l, opts)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return e
}

func opts(seed int64, la Lookahead) Options {
	o := DefaultOptions()
	o.Seed = seed
	o.Lookahead = la
	return o
}

// checkDraw verifies the structural properties of a finished draw.
func checkDraw(t *testing.T, r *Result) {
	t.Helper()
	l := r.League()
	limit := l.Rules().MaxPerCountry
	for i := 0; i < l.NumTeams(); i++ {
		id := model.TeamID(i)
		team := l.Team(id)
		rows := r.Opponents(id)
		if len(rows) != l.NumPots() {
			t.Fatalf("%s has %d pot rows, want %d", team.Name, len(rows), l.NumPots())
		}
		seen := make(map[model.TeamID]bool)
		perCountry := make(map[string]int)
		for _, po := range rows {
			for _, side := range []struct {
				opp model.TeamID
				dir model.Direction
			}{{po.Home, model.Home}, {po.Away, model.Away}} {
				if side.opp == model.NoTeam {
					t.Fatalf("%s has an empty %s slot against pot %d", team.Name, side.dir, po.Pot)
				}
				opp := l.Team(side.opp)
				if opp.Pot != po.Pot {
					t.Errorf("%s: %s opponent %s is from pot %d, recorded under pot %d", team.Name, side.dir, opp.Name, opp.Pot, po.Pot)
				}
				if opp.Country == team.Country {
					t.Errorf("%s faces compatriot %s", team.Name, opp.Name)
				}
				if seen[side.opp] {
					t.Errorf("%s faces %s twice", team.Name, opp.Name)
				}
				seen[side.opp] = true
				perCountry[opp.Country]++

				back := r.Opponents(side.opp)[team.Pot-1]
				mirror := back.Away
				if side.dir == model.Away {
					mirror = back.Home
				}
				if mirror != id {
					t.Errorf("%s has %s as %s opponent but the reverse slot holds %d", team.Name, opp.Name, side.dir, mirror)
				}
			}
		}
		if len(seen) != 2*l.NumPots() {
			t.Errorf("%s has %d distinct opponents, want %d", team.Name, len(seen), 2*l.NumPots())
		}
		if limit > 0 {
			for c, n := range perCountry {
				if n > limit {
					t.Errorf("%s faces %d teams from %s, limit %d", team.Name, n, c, limit)
				}
			}
		}
	}
	if got, want := len(r.Matches()), l.NumTeams()*l.NumPots(); got != want {
		t.Errorf("got %d matches, want %d", got, want)
	}
}

func TestRunUCL(t *testing.T) {
	l := ucl2024(t)
	draws := 1000
	if testing.Short() {
		draws = 100
	}

	madrid, _ := l.Lookup("Real Madrid")
	barca, _ := l.Lookup("Barcelona")
	completed := 0
	for seed := int64(0); seed < int64(draws); seed++ {
		e := newEngine(t, l, opts(seed, LookaheadForward))
		r, err := e.Run()
		if err != nil {
			if !errors.Is(err, ErrInfeasible) {
				t.Fatalf("seed %d: Run() error = %v, want a completed draw or ErrInfeasible", seed, err)
			}
			if e.State().Links() != 0 {
				t.Fatalf("seed %d: infeasible draw left %d links behind", seed, e.State().Links())
			}
			continue
		}
		completed++
		checkDraw(t, r)
		for _, po := range r.Opponents(madrid) {
			if po.Home == barca || po.Away == barca {
				t.Fatalf("seed %d: Real Madrid drawn against Barcelona", seed)
			}
		}
		if t.Failed() {
			t.Fatalf("seed %d produced an invalid draw", seed)
		}
	}
	if completed == 0 {
		t.Fatal("no draw completed")
	}
	t.Logf("%d/%d draws completed", completed, draws)
}

func TestDrawPicksFromAdmissibleMatchups(t *testing.T) {
	l := ucl2024(t)
	draws := 50
	if testing.Short() {
		draws = 10
	}
	for seed := int64(0); seed < int64(draws); seed++ {
		e := newEngine(t, l, opts(seed, LookaheadForward))
		for e.Phase() != PhaseComplete {
			team, err := e.NextTeam()
			if err != nil {
				t.Fatalf("seed %d: NextTeam() error: %v", seed, err)
			}
			for _, p := range e.OwedPots() {
				shown, err := e.AdmissibleMatchups(team.ID, p)
				if err != nil {
					t.Fatalf("seed %d: AdmissibleMatchups(%s, %d) error: %v", seed, team.Name, p, err)
				}
				if len(shown) == 0 {
					t.Fatalf("seed %d: no matchups shown for %s against pot %d", seed, team.Name, p)
				}
				for _, m := range shown {
					s := e.State()
					if err := s.Commit(team.ID, p, m.Home, m.Away); err != nil {
						t.Fatalf("seed %d: shown matchup %+v does not commit: %v", seed, m, err)
					}
					if !viable(s, team.ID, m) {
						t.Errorf("seed %d: shown matchup %+v for %s fails lookahead", seed, m, team.Name)
					}
				}

				got, err := e.DrawOpponents(team.ID, p)
				if err != nil {
					t.Fatalf("seed %d: DrawOpponents(%s, %d) error: %v", seed, team.Name, p, err)
				}
				found := false
				for _, m := range shown {
					if m == got {
						found = true
						break
					}
				}
				if !found {
					t.Fatalf("seed %d: %s drew %+v against pot %d, not among %v", seed, team.Name, got, p, shown)
				}
			}
		}
		r, err := e.Result()
		if err != nil {
			t.Fatalf("seed %d: Result() error: %v", seed, err)
		}
		checkDraw(t, r)
	}
}

func TestLookaheadModesUCL(t *testing.T) {
	l := ucl2024(t)

	t.Run("none", func(t *testing.T) {
		draws := 20
		if testing.Short() {
			draws = 5
		}
		completed, deadEnds := 0, 0
		for seed := int64(0); seed < int64(draws); seed++ {
			e := newEngine(t, l, opts(seed, LookaheadNone))
			r, err := e.Run()
			deadEnds += e.Stats().DeadEnds
			if err != nil {
				if !errors.Is(err, ErrInfeasible) {
					t.Fatalf("seed %d: Run() error = %v", seed, err)
				}
				if e.State().Links() != 0 {
					t.Fatalf("seed %d: infeasible draw left %d links behind", seed, e.State().Links())
				}
				continue
			}
			completed++
			checkDraw(t, r)
		}
		if completed == 0 {
			t.Error("no draw completed without lookahead")
		}
		if deadEnds == 0 {
			t.Error("expected dead ends without lookahead")
		}
		t.Logf("%d/%d draws completed, %d dead ends", completed, draws, deadEnds)
	})

	t.Run("complete", func(t *testing.T) {
		if testing.Short() {
			t.Skip("completion search on every candidate is slow")
		}
		for seed := int64(0); seed < 2; seed++ {
			r, err := newEngine(t, l, opts(seed, LookaheadComplete)).Run()
			if err != nil {
				t.Fatalf("seed %d: Run() error: %v", seed, err)
			}
			checkDraw(t, r)
			t.Logf("seed %d: %+v", seed, r.Stats)
		}
	})
}

func TestDeterministic(t *testing.T) {
	l := ucl2024(t)
	o := opts(42, LookaheadForward)
	o.Order = &strategy.Shuffled{}

	run := func() []Match {
		r, err := newEngine(t, l, o).Run()
		if err != nil {
			t.Fatalf("Run() error: %v", err)
		}
		return r.Matches()
	}
	if diff := cmp.Diff(run(), run()); diff != "" {
		t.Errorf("same seed produced different draws (-first +second):\n%s", diff)
	}
}

func TestMicroInstances(t *testing.T) {
	t.Run("three teams complete", func(t *testing.T) {
		l := singlePot(t, "X", "ESP", "Y", "ENG", "Z", "GER")
		for seed := int64(0); seed < 20; seed++ {
			r, err := newEngine(t, l, opts(seed, LookaheadNone)).Run()
			if err != nil {
				t.Fatalf("seed %d: Run() error: %v", seed, err)
			}
			checkDraw(t, r)
		}
	})

	t.Run("four teams recover from dead ends", func(t *testing.T) {
		l := singlePot(t, "A", "ESP", "B", "ENG", "C", "GER", "D", "ITA")
		deadEnds := 0
		for seed := int64(0); seed < 50; seed++ {
			e := newEngine(t, l, opts(seed, LookaheadNone))
			r, err := e.Run()
			if err != nil {
				t.Fatalf("seed %d: Run() error: %v", seed, err)
			}
			checkDraw(t, r)
			deadEnds += r.Stats.DeadEnds
		}
		if deadEnds == 0 {
			t.Error("expected at least one dead end across 50 seeds")
		}
	})

	t.Run("compatriots only is infeasible", func(t *testing.T) {
		l := singlePot(t, "A", "ESP", "B", "ESP", "C", "ESP")
		o := opts(1, LookaheadNone)
		o.MaxRestarts = 3
		e := newEngine(t, l, o)

		_, err := e.Run()
		var inf *InfeasibleError
		if !errors.As(err, &inf) {
			t.Fatalf("Run() error = %v, want *InfeasibleError", err)
		}
		if inf.Attempts != 4 {
			t.Errorf("Attempts = %d, want 4", inf.Attempts)
		}
		if inf.StuckTeam != "A" || inf.StuckPot != 1 {
			t.Errorf("stuck on %s pot %d, want A pot 1", inf.StuckTeam, inf.StuckPot)
		}
		if e.Phase() != PhaseInfeasible {
			t.Errorf("Phase() = %v, want %v", e.Phase(), PhaseInfeasible)
		}
		if e.State().Links() != 0 {
			t.Errorf("Links() = %d after abandon, want 0", e.State().Links())
		}
		if _, err := e.Result(); !errors.Is(err, ErrInfeasible) {
			t.Errorf("Result() error = %v, want ErrInfeasible", err)
		}
		if _, err := e.NextTeam(); !errors.Is(err, ErrInfeasible) {
			t.Errorf("NextTeam() error = %v, want ErrInfeasible", err)
		}
	})
}

func TestCompleteLookahead(t *testing.T) {
	l := twoPots(t)
	for seed := int64(0); seed < 30; seed++ {
		o := opts(seed, LookaheadComplete)
		o.SearchBudget = 100000
		r, err := newEngine(t, l, o).Run()
		if err != nil {
			t.Fatalf("seed %d: Run() error: %v", seed, err)
		}
		checkDraw(t, r)
		if r.Stats.DeadEnds != 0 {
			t.Errorf("seed %d: %d dead ends with complete lookahead", seed, r.Stats.DeadEnds)
		}
	}
}

func TestProtocol(t *testing.T) {
	l := twoPots(t)

	t.Run("matchups before selecting a team", func(t *testing.T) {
		e := newEngine(t, l, opts(1, LookaheadForward))
		if _, err := e.AdmissibleMatchups(0, 1); !errors.Is(err, ErrOutOfOrder) {
			t.Errorf("error = %v, want ErrOutOfOrder", err)
		}
		if e.Phase() != PhaseSelectTeam {
			t.Errorf("Phase() = %v, want %v", e.Phase(), PhaseSelectTeam)
		}
	})

	t.Run("wrong team, wrong pot, early next team", func(t *testing.T) {
		e := newEngine(t, l, opts(1, LookaheadForward))
		team, err := e.NextTeam()
		if err != nil {
			t.Fatalf("NextTeam() error: %v", err)
		}
		if got := e.OwedPots(); !cmp.Equal(got, []model.Pot{1, 2}) {
			t.Errorf("OwedPots() = %v, want [1 2]", got)
		}
		if _, err := e.AdmissibleMatchups(team.ID+1, 1); !errors.Is(err, ErrOutOfOrder) {
			t.Errorf("other team: error = %v, want ErrOutOfOrder", err)
		}
		if _, err := e.DrawOpponents(team.ID, 2); !errors.Is(err, ErrOutOfOrder) {
			t.Errorf("pot 2 before pot 1: error = %v, want ErrOutOfOrder", err)
		}
		if _, err := e.NextTeam(); !errors.Is(err, ErrOutOfOrder) {
			t.Errorf("NextTeam() with pots owed: error = %v, want ErrOutOfOrder", err)
		}
		if e.State().Links() != 0 {
			t.Errorf("rejected calls changed the draw: %d links", e.State().Links())
		}

		if _, err := e.DrawOpponents(team.ID, 1); err != nil {
			t.Fatalf("DrawOpponents() error: %v", err)
		}
		if _, err := e.AdmissibleMatchups(team.ID, 1); !errors.Is(err, ErrOutOfOrder) {
			t.Errorf("resolved pot: error = %v, want ErrOutOfOrder", err)
		}
	})

	t.Run("result before and after completion", func(t *testing.T) {
		e := newEngine(t, l, opts(3, LookaheadForward))
		if _, err := e.Result(); !errors.Is(err, ErrNotComplete) {
			t.Errorf("Result() error = %v, want ErrNotComplete", err)
		}
		r, err := e.Run()
		if err != nil {
			t.Fatalf("Run() error: %v", err)
		}
		if !e.IsComplete() {
			t.Error("IsComplete() = false after Run")
		}
		if got, _ := e.Result(); got != r {
			t.Error("Result() differs from Run()")
		}
		if _, err := e.NextTeam(); !errors.Is(err, ErrDrawAlreadyComplete) {
			t.Errorf("NextTeam() error = %v, want ErrDrawAlreadyComplete", err)
		}
		if _, err := e.DrawOpponents(0, 1); !errors.Is(err, ErrDrawAlreadyComplete) {
			t.Errorf("DrawOpponents() error = %v, want ErrDrawAlreadyComplete", err)
		}
	})
}

func TestQueriesDoNotMutate(t *testing.T) {
	l := ucl2024(t)
	e := newEngine(t, l, opts(9, LookaheadForward))

	// Play the first two pot 1 teams to get a non-trivial state.
	for i := 0; i < 2; i++ {
		team, err := e.NextTeam()
		if err != nil {
			t.Fatalf("NextTeam() error: %v", err)
		}
		for _, p := range e.OwedPots() {
			if _, err := e.DrawOpponents(team.ID, p); err != nil {
				t.Fatalf("DrawOpponents(%s, %d) error: %v", team.Name, p, err)
			}
		}
	}
	team, err := e.NextTeam()
	if err != nil {
		t.Fatalf("NextTeam() error: %v", err)
	}

	t.Run("admissible matchups are idempotent", func(t *testing.T) {
		first, err := e.AdmissibleMatchups(team.ID, 1)
		if err != nil {
			t.Fatalf("AdmissibleMatchups() error: %v", err)
		}
		if len(first) == 0 {
			t.Fatal("no admissible matchups")
		}
		second, _ := e.AdmissibleMatchups(team.ID, 1)
		if diff := cmp.Diff(first, second); diff != "" {
			t.Errorf("second call differs (-first +second):\n%s", diff)
		}
		if e.Phase() != PhaseDrawOpponents {
			t.Errorf("Phase() = %v, want %v", e.Phase(), PhaseDrawOpponents)
		}
	})

	t.Run("snapshot and restore keep every candidate set", func(t *testing.T) {
		all := func(s *model.State) [][]model.Matchup {
			var out [][]model.Matchup
			for i := 0; i < l.NumTeams(); i++ {
				for p := 1; p <= l.NumPots(); p++ {
					out = append(out, s.Matchups(model.TeamID(i), model.Pot(p)))
				}
			}
			return out
		}
		s := e.State()
		before := all(s)
		s.Restore(s.Snapshot())
		if diff := cmp.Diff(before, all(s)); diff != "" {
			t.Errorf("restore changed candidates (-before +after):\n%s", diff)
		}
	})
}

func TestResult(t *testing.T) {
	l := ucl2024(t)
	r, err := newEngine(t, l, opts(5, LookaheadForward)).Run()
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if r.Seed != 5 {
		t.Errorf("Seed = %d, want 5", r.Seed)
	}

	city, _ := l.Lookup("Manchester City")
	var elo, coeff float64
	for _, po := range r.Opponents(city) {
		for _, u := range []model.TeamID{po.Home, po.Away} {
			elo += l.Team(u).Elo
			coeff += l.Team(u).Coefficient
		}
	}
	got := r.OpponentStrength(city)
	if want := (Strength{Elo: elo / 8, Coefficient: coeff / 8}); !cmp.Equal(got, want) {
		t.Errorf("OpponentStrength() = %+v, want %+v", got, want)
	}

	rows := r.Opponents(city)
	rows[0].Home = model.NoTeam
	if r.Opponents(city)[0].Home == model.NoTeam {
		t.Error("Opponents() exposes internal storage")
	}
}

func TestNewRejectsBadOptions(t *testing.T) {
	l := twoPots(t)
	tests := []struct {
		name string
		mod  func(*Options)
	}{
		{"negative backtracks", func(o *Options) { o.MaxBacktracks = -1 }},
		{"negative restarts", func(o *Options) { o.MaxRestarts = -1 }},
		{"unknown lookahead", func(o *Options) { o.Lookahead = "psychic" }},
		{"complete without budget", func(o *Options) { o.Lookahead = LookaheadComplete; o.SearchBudget = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := DefaultOptions()
			tt.mod(&o)
			if _, err := New(l, o); err == nil {
				t.Error("expected error")
			}
		})
	}
}
