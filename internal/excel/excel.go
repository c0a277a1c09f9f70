package excel

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JulienGuyon/UEFA-league-phase-draw/internal/draw"
	"github.com/JulienGuyon/UEFA-league-phase-draw/internal/model"
)

const (
	DrawSheet    = "Draw"
	MatchesSheet = "Matches"
	AboutSheet   = "About"
)

// MatchRow is one fixture read back from the Matches sheet.
type MatchRow struct {
	Row  int
	Home string
	Away string
}

// Generate creates an Excel workbook with the draw overview, the match list
// and per-team sheets.
func Generate(l *model.League, r *draw.Result) (*excelize.File, error) {
	f := excelize.NewFile()

	// Set default font for the workbook
	f.SetDefaultFont("Arial")

	if err := writeDrawSheet(f, l, r); err != nil {
		return nil, fmt.Errorf("writing draw sheet: %w", err)
	}

	var rows []MatchRow
	for _, m := range r.Matches() {
		rows = append(rows, MatchRow{Home: l.Team(m.Home).Name, Away: l.Team(m.Away).Name})
	}
	if err := writeMatchesSheet(f, l, rows); err != nil {
		return nil, fmt.Errorf("writing matches sheet: %w", err)
	}

	if err := writeTeamSheets(f, l, rows); err != nil {
		return nil, fmt.Errorf("writing team sheets: %w", err)
	}

	if err := writeAboutSheet(f, r); err != nil {
		return nil, fmt.Errorf("writing about sheet: %w", err)
	}

	f.DeleteSheet("Sheet1")
	return f, nil
}

// UpdateTeamSheets rebuilds every team sheet of the workbook at path from its
// Matches sheet, so hand edits to the match list carry over.
func UpdateTeamSheets(path string, l *model.League) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	rows, err := ReadMatches(f)
	if err != nil {
		return err
	}

	for _, t := range l.Teams() {
		if idx, _ := f.GetSheetIndex(SheetName(t.Name)); idx >= 0 {
			if err := f.DeleteSheet(SheetName(t.Name)); err != nil {
				return fmt.Errorf("removing sheet for %s: %w", t.Name, err)
			}
		}
	}
	if err := writeTeamSheets(f, l, rows); err != nil {
		return fmt.Errorf("writing team sheets: %w", err)
	}
	return f.Save()
}

// ReadMatches reads the Matches sheet. Rows without both team names are
// skipped.
func ReadMatches(f *excelize.File) ([]MatchRow, error) {
	rows, err := f.GetRows(MatchesSheet)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", MatchesSheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s is empty", MatchesSheet)
	}

	var out []MatchRow
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) < 2 || row[0] == "" || row[1] == "" {
			continue
		}
		out = append(out, MatchRow{Row: i + 1, Home: row[0], Away: row[1]})
	}
	return out, nil
}

var sheetNameReplacer = strings.NewReplacer(":", "-", "/", "-", "\\", "-", "?", "", "*", "", "[", "(", "]", ")")

// SheetName returns the sheet used for a team. Excel caps names at 31
// characters and rejects a few punctuation marks.
func SheetName(team string) string {
	r := []rune(sheetNameReplacer.Replace(team))
	if len(r) > 31 {
		r = r[:31]
	}
	return string(r)
}

func headerStyle(f *excelize.File) int {
	style, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 12, Family: "Arial"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#1B2A6B"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	return style
}

func writeHeaders(f *excelize.File, sheet string, headers []string) {
	for i, h := range headers {
		f.SetCellValue(sheet, cellRef(i+1, 1), h)
	}
	if style := headerStyle(f); style != 0 {
		f.SetCellStyle(sheet, cellRef(1, 1), cellRef(len(headers), 1), style)
	}
}

func writeDrawSheet(f *excelize.File, l *model.League, r *draw.Result) error {
	sheet := DrawSheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	// Headers: Team, Country, Pot, Pot 1 Home, Pot 1 Away, ..., Opp. Elo, Opp. Coeff
	headers := []string{"Team", "Country", "Pot"}
	for p := 1; p <= l.NumPots(); p++ {
		headers = append(headers, fmt.Sprintf("Pot %d Home", p), fmt.Sprintf("Pot %d Away", p))
	}
	headers = append(headers, "Opp. Elo", "Opp. Coeff")
	writeHeaders(f, sheet, headers)

	for _, t := range l.Teams() {
		row := int(t.ID) + 2
		f.SetCellValue(sheet, cellRef(1, row), t.Name)
		f.SetCellValue(sheet, cellRef(2, row), t.Country)
		f.SetCellValue(sheet, cellRef(3, row), int(t.Pot))
		col := 4
		for _, po := range r.Opponents(t.ID) {
			f.SetCellValue(sheet, cellRef(col, row), l.Team(po.Home).Name)
			f.SetCellValue(sheet, cellRef(col+1, row), l.Team(po.Away).Name)
			col += 2
		}
		s := r.OpponentStrength(t.ID)
		f.SetCellValue(sheet, cellRef(col, row), round2(s.Elo))
		f.SetCellValue(sheet, cellRef(col+1, row), round2(s.Coefficient))
	}

	f.SetColWidth(sheet, "A", "A", 24)
	f.SetColWidth(sheet, "B", "C", 9)
	f.SetColWidth(sheet, colLetter(4), colLetter(3+2*l.NumPots()), 22)
	f.SetPanes(sheet, &excelize.Panes{Freeze: true, XSplit: 1, YSplit: 1, TopLeftCell: "B2", ActivePane: "bottomRight"})
	return nil
}

func writeMatchesSheet(f *excelize.File, l *model.League, rows []MatchRow) error {
	sheet := MatchesSheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	writeHeaders(f, sheet, []string{"Home", "Away", "Home Pot", "Away Pot"})
	for i, m := range rows {
		row := i + 2
		f.SetCellValue(sheet, cellRef(1, row), m.Home)
		f.SetCellValue(sheet, cellRef(2, row), m.Away)
		if id, ok := l.Lookup(m.Home); ok {
			f.SetCellValue(sheet, cellRef(3, row), int(l.Team(id).Pot))
		}
		if id, ok := l.Lookup(m.Away); ok {
			f.SetCellValue(sheet, cellRef(4, row), int(l.Team(id).Pot))
		}
	}
	f.SetColWidth(sheet, "A", "B", 24)
	f.SetColWidth(sheet, "C", "D", 10)
	return nil
}

func writeTeamSheets(f *excelize.File, l *model.League, rows []MatchRow) error {
	for _, team := range l.Teams() {
		sheet := SheetName(team.Name)
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("sheet for %s: %w", team.Name, err)
		}

		headers := []string{"Opponent", "Country", "Pot", "Home/Away"}
		writeHeaders(f, sheet, headers)

		line := 2
		for _, m := range rows {
			var opponent, homeAway string
			switch team.Name {
			case m.Home:
				opponent, homeAway = m.Away, "Home"
			case m.Away:
				opponent, homeAway = m.Home, "Away"
			default:
				continue
			}
			f.SetCellValue(sheet, cellRef(1, line), opponent)
			f.SetCellValue(sheet, cellRef(4, line), homeAway)
			if id, ok := l.Lookup(opponent); ok {
				f.SetCellValue(sheet, cellRef(2, line), l.Team(id).Country)
				f.SetCellValue(sheet, cellRef(3, line), int(l.Team(id).Pot))
			}
			line++
		}

		widths := map[string]float64{"A": 24, "B": 10, "C": 6, "D": 12}
		for col, w := range widths {
			f.SetColWidth(sheet, col, col, w)
		}
	}
	return nil
}

func writeAboutSheet(f *excelize.File, r *draw.Result) error {
	sheet := AboutSheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	rows := [][2]any{
		{"Draw ID", r.ID.String()},
		{"Seed", strconv.FormatInt(r.Seed, 10)},
		{"Dead ends", r.Stats.DeadEnds},
		{"Backtracks", r.Stats.Backtracks},
		{"Restarts", r.Stats.Restarts},
	}
	for i, kv := range rows {
		f.SetCellValue(sheet, cellRef(1, i+1), kv[0])
		f.SetCellValue(sheet, cellRef(2, i+1), kv[1])
	}
	f.SetColWidth(sheet, "A", "A", 14)
	f.SetColWidth(sheet, "B", "B", 40)
	return nil
}

func round2(v float64) float64 {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	out, _ := strconv.ParseFloat(s, 64)
	return out
}

func cellRef(col, row int) string {
	return fmt.Sprintf("%s%d", colLetter(col), row)
}

func colLetter(col int) string {
	result := ""
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}
