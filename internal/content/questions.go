package content

import (
	"encoding/json"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
)

// Question records are opaque to the gateway: they are filtered by LLAB
// number at the section level and returned to the client verbatim.
type section struct {
	LLab      int               `json:"llab"`
	Questions []json.RawMessage `json:"questions"`
}

type aircraftFile struct {
	Aircraft []section `json:"aircraft"`
}

type rankFile struct {
	CadetRanks    []section `json:"cadetRanks"`
	EnlistedRanks []section `json:"enlistedRanks"`
	OfficerRanks  []section `json:"officerRanks"`
}

// LoadQuestions returns the pre-authored questions tagged with one of the
// requested LLAB numbers, drawn from both question pools. A pool that fails
// to load contributes nothing; the other still counts.
func (s *Store) LoadQuestions(llabNumbers []int) []json.RawMessage {
	wanted := make(map[int]bool, len(llabNumbers))
	for _, n := range llabNumbers {
		wanted[n] = true
	}

	var pool []json.RawMessage

	var aircraft aircraftFile
	if err := s.loadJSON("aircraftQuestions.json", &aircraft); err != nil {
		slog.Error("error loading aircraft questions", "error", err)
	} else {
		for _, sec := range aircraft.Aircraft {
			if wanted[sec.LLab] {
				pool = append(pool, sec.Questions...)
			}
		}
	}

	var ranks rankFile
	if err := s.loadJSON("rankQuestions.json", &ranks); err != nil {
		slog.Error("error loading rank questions", "error", err)
	} else {
		for _, category := range [][]section{ranks.CadetRanks, ranks.EnlistedRanks, ranks.OfficerRanks} {
			for _, sec := range category {
				if wanted[sec.LLab] {
					pool = append(pool, sec.Questions...)
				}
			}
		}
	}

	return pool
}

// PickQuestion selects one question uniformly at random from the filtered
// pool. The second return value is false when no question matches.
func (s *Store) PickQuestion(llabNumbers []int) (json.RawMessage, bool) {
	pool := s.LoadQuestions(llabNumbers)
	if len(pool) == 0 {
		return nil, false
	}
	return pool[rand.Intn(len(pool))], true
}

func (s *Store) loadJSON(name string, dest any) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}
