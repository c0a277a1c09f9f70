package validator

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/JulienGuyon/UEFA-league-phase-draw/internal/draw"
	"github.com/JulienGuyon/UEFA-league-phase-draw/internal/excel"
	"github.com/JulienGuyon/UEFA-league-phase-draw/internal/model"
)

// Violation represents a rule violation found during validation.
type Violation struct {
	Row     int    // workbook row, 0 when not tied to a row
	Type    string // always "error" for now
	Message string
}

// Validate reads a draw workbook and checks its match list against the league.
func Validate(l *model.League, path string) ([]Violation, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	rows, err := excel.ReadMatches(f)
	if err != nil {
		return nil, fmt.Errorf("reading matches: %w", err)
	}
	return Check(l, rows), nil
}

// CheckResult validates a finished draw in memory.
func CheckResult(r *draw.Result) []Violation {
	l := r.League()
	var rows []excel.MatchRow
	for _, m := range r.Matches() {
		rows = append(rows, excel.MatchRow{Home: l.Team(m.Home).Name, Away: l.Team(m.Away).Name})
	}
	return Check(l, rows)
}

type parsedMatch struct {
	Row  int
	Home model.TeamID
	Away model.TeamID
}

// Check validates a match list against the league rules: every team meets
// one home and one away opponent from each pot, never a compatriot, never
// the same opponent twice, and within the per-country cap.
func Check(l *model.League, rows []excel.MatchRow) []Violation {
	var violations []Violation
	var matches []parsedMatch
	for _, r := range rows {
		home, okH := l.Lookup(r.Home)
		away, okA := l.Lookup(r.Away)
		if !okH || !okA {
			name := r.Home
			if okH {
				name = r.Away
			}
			violations = append(violations, Violation{
				Row:     r.Row,
				Type:    "error",
				Message: fmt.Sprintf("unknown team %q", name),
			})
			continue
		}
		if home == away {
			violations = append(violations, Violation{
				Row:     r.Row,
				Type:    "error",
				Message: fmt.Sprintf("%s plays itself", r.Home),
			})
			continue
		}
		matches = append(matches, parsedMatch{Row: r.Row, Home: home, Away: away})
	}

	violations = append(violations, checkCountries(l, matches)...)
	violations = append(violations, checkRepeats(l, matches)...)
	violations = append(violations, checkPotBalance(l, matches)...)
	violations = append(violations, checkCountryCap(l, matches)...)

	sort.SliceStable(violations, func(i, j int) bool {
		return violations[i].Row < violations[j].Row
	})
	return violations
}

func checkCountries(l *model.League, matches []parsedMatch) []Violation {
	var violations []Violation
	for _, m := range matches {
		h, a := l.Team(m.Home), l.Team(m.Away)
		if h.Country == a.Country {
			violations = append(violations, Violation{
				Row:     m.Row,
				Type:    "error",
				Message: fmt.Sprintf("%s and %s are both from %s", h.Name, a.Name, h.Country),
			})
		}
	}
	return violations
}

func checkRepeats(l *model.League, matches []parsedMatch) []Violation {
	type pair struct{ a, b model.TeamID }
	first := make(map[pair]int)
	var violations []Violation
	for _, m := range matches {
		a, b := m.Home, m.Away
		if a > b {
			a, b = b, a
		}
		if row, ok := first[pair{a, b}]; ok {
			violations = append(violations, Violation{
				Row:  m.Row,
				Type: "error",
				Message: fmt.Sprintf("%s and %s meet more than once (first on row %d)",
					l.Team(m.Home).Name, l.Team(m.Away).Name, row),
			})
			continue
		}
		first[pair{a, b}] = m.Row
	}
	return violations
}

func checkPotBalance(l *model.League, matches []parsedMatch) []Violation {
	n := l.NumPots()
	home := make([]int, l.NumTeams()*n)
	away := make([]int, l.NumTeams()*n)
	for _, m := range matches {
		home[int(m.Home)*n+int(l.Team(m.Away).Pot-1)]++
		away[int(m.Away)*n+int(l.Team(m.Home).Pot-1)]++
	}

	var violations []Violation
	for _, t := range l.Teams() {
		for p := 1; p <= n; p++ {
			i := int(t.ID)*n + p - 1
			if home[i] != 1 {
				violations = append(violations, Violation{
					Type:    "error",
					Message: fmt.Sprintf("%s hosts %d teams from pot %d (want 1)", t.Name, home[i], p),
				})
			}
			if away[i] != 1 {
				violations = append(violations, Violation{
					Type:    "error",
					Message: fmt.Sprintf("%s visits %d teams from pot %d (want 1)", t.Name, away[i], p),
				})
			}
		}
	}
	return violations
}

func checkCountryCap(l *model.League, matches []parsedMatch) []Violation {
	limit := l.Rules().MaxPerCountry
	if limit <= 0 {
		return nil
	}

	type teamCountry struct {
		team    model.TeamID
		country string
	}
	counts := make(map[teamCountry]int)
	for _, m := range matches {
		counts[teamCountry{m.Home, l.Team(m.Away).Country}]++
		counts[teamCountry{m.Away, l.Team(m.Home).Country}]++
	}

	var violations []Violation
	for _, t := range l.Teams() {
		var over []string
		for tc, n := range counts {
			if tc.team == t.ID && n > limit {
				over = append(over, fmt.Sprintf("%d from %s", n, tc.country))
			}
		}
		sort.Strings(over)
		for _, o := range over {
			violations = append(violations, Violation{
				Type:    "error",
				Message: fmt.Sprintf("%s faces %s (max %d)", t.Name, o, limit),
			})
		}
	}
	return violations
}
