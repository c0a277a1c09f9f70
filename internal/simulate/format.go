package simulate

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/JulienGuyon/UEFA-league-phase-draw/internal/draw"
	"github.com/JulienGuyon/UEFA-league-phase-draw/internal/model"
)

// Rating selects which team rating WriteRatings sums.
type Rating int

const (
	RatingElo Rating = iota
	RatingCoefficient
)

// WriteMatches writes one line per completed draw. For each team, by 1-based
// ID, the line holds its home fixtures "(team, opponent)" for every pot and
// then its away fixtures "(opponent, team)", separated by spaces.
func WriteMatches(w io.Writer, results []*draw.Result) error {
	bw := bufio.NewWriter(w)
	for _, r := range results {
		if r == nil {
			continue
		}
		n := r.League().NumTeams()
		for i := 0; i < n; i++ {
			t := model.TeamID(i)
			opps := r.Opponents(t)
			for _, po := range opps {
				if i > 0 || po.Pot > 1 {
					bw.WriteByte(' ')
				}
				fmt.Fprintf(bw, "(%d, %d)", i+1, int(po.Home)+1)
			}
			for _, po := range opps {
				fmt.Fprintf(bw, " (%d, %d)", int(po.Away)+1, i+1)
			}
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// WriteRatings writes one line per completed draw holding, for each team in
// ID order, the summed rating of its opponents.
func WriteRatings(w io.Writer, results []*draw.Result, rating Rating) error {
	bw := bufio.NewWriter(w)
	for _, r := range results {
		if r == nil {
			continue
		}
		l := r.League()
		for i := 0; i < l.NumTeams(); i++ {
			var sum float64
			for _, po := range r.Opponents(model.TeamID(i)) {
				for _, u := range []model.TeamID{po.Home, po.Away} {
					if rating == RatingElo {
						sum += l.Team(u).Elo
					} else {
						sum += l.Team(u).Coefficient
					}
				}
			}
			if i > 0 {
				bw.WriteByte(' ')
			}
			bw.WriteString(strconv.FormatFloat(sum, 'f', -1, 64))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
