package draw

import (
	"errors"
	"testing"
)

func TestSession(t *testing.T) {
	l := twoPots(t)
	s := NewSession(newEngine(t, l, opts(8, LookaheadForward)))

	if _, err := s.SelectedTeamName(1); !errors.Is(err, ErrOutOfOrder) {
		t.Errorf("skipping ahead: error = %v, want ErrOutOfOrder", err)
	}
	if _, err := s.SelectedTeamName(l.NumTeams()); err == nil {
		t.Error("expected error for index past the last team")
	}

	for i := 0; i < l.NumTeams(); i++ {
		name, err := s.SelectedTeamName(i)
		if err != nil {
			t.Fatalf("SelectedTeamName(%d) error: %v", i, err)
		}
		if again, _ := s.SelectedTeamName(i); again != name {
			t.Errorf("SelectedTeamName(%d) = %q then %q", i, name, again)
		}
		if i > 0 {
			if _, err := s.AdmissibleMatchups(i-1, 2); !errors.Is(err, ErrOutOfOrder) {
				t.Errorf("previous team: error = %v, want ErrOutOfOrder", err)
			}
		}

		for _, p := range s.Engine().OwedPots() {
			pairs, err := s.AdmissibleMatchups(i, int(p))
			if err != nil {
				t.Fatalf("AdmissibleMatchups(%d, %d) error: %v", i, p, err)
			}
			if len(pairs) == 0 {
				t.Fatalf("AdmissibleMatchups(%d, %d) is empty", i, p)
			}
			got, err := s.SelectMatchup(i, int(p))
			if err != nil {
				t.Fatalf("SelectMatchup(%d, %d) error: %v", i, p, err)
			}
			if got.Home == name || got.Away == name || got.Home == got.Away {
				t.Errorf("SelectMatchup(%d, %d) = %+v for %s", i, p, got, name)
			}
		}
	}

	r, err := s.Engine().Result()
	if err != nil {
		t.Fatalf("Result() error: %v", err)
	}
	checkDraw(t, r)
	if _, err := s.SelectMatchup(l.NumTeams()-1, 2); !errors.Is(err, ErrDrawAlreadyComplete) {
		t.Errorf("after completion: error = %v, want ErrDrawAlreadyComplete", err)
	}
}
