package content

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadReference_ConcatenatesInOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "LLAB1.txt", "Chain of command.\n")
	writeFile(t, dir, "LLAB2.txt", "Drill and ceremonies.")

	s := NewStore(dir)
	got := s.LoadReference([]int{1, 2})

	want := "Chain of command.\n\n---\n\nDrill and ceremonies."
	if got != want {
		t.Errorf("LoadReference() = %q, want %q", got, want)
	}
}

func TestLoadReference_SkipsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "LLAB1.txt", "Chain of command.")

	s := NewStore(dir)
	got := s.LoadReference([]int{1, 7})

	if got != "Chain of command." {
		t.Errorf("expected partial content for missing LLAB7, got %q", got)
	}
}

func TestLoadReference_AllMissing(t *testing.T) {
	s := NewStore(t.TempDir())
	if got := s.LoadReference([]int{1, 2, 3}); got != "" {
		t.Errorf("expected empty reference text, got %q", got)
	}
}

const aircraftJSON = `{
  "aircraft": [
    {"llab": 1, "questions": [
      {"question": "What is the F-16?", "answer": "Fighting Falcon"},
      {"question": "What is the C-17?", "answer": "Globemaster III"}
    ]},
    {"llab": 2, "questions": [
      {"question": "What is the B-2?", "answer": "Spirit"}
    ]}
  ]
}`

const rankJSON = `{
  "cadetRanks": [
    {"llab": 1, "questions": [{"question": "Cadet rank insignia?", "answer": "..."}]}
  ],
  "enlistedRanks": [
    {"llab": 3, "questions": [{"question": "E-5 rank?", "answer": "Staff Sergeant"}]}
  ],
  "officerRanks": []
}`

func TestLoadQuestions_FiltersByLLab(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "aircraftQuestions.json", aircraftJSON)
	writeFile(t, dir, "rankQuestions.json", rankJSON)

	s := NewStore(dir)

	pool := s.LoadQuestions([]int{1})
	if len(pool) != 3 {
		t.Fatalf("expected 3 questions for LLAB 1, got %d", len(pool))
	}

	pool = s.LoadQuestions([]int{3})
	if len(pool) != 1 {
		t.Fatalf("expected 1 question for LLAB 3, got %d", len(pool))
	}
	if !strings.Contains(string(pool[0]), "Staff Sergeant") {
		t.Errorf("unexpected question record: %s", pool[0])
	}
}

func TestLoadQuestions_MissingPoolDegrades(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "aircraftQuestions.json", aircraftJSON)
	// rankQuestions.json intentionally absent.

	s := NewStore(dir)
	pool := s.LoadQuestions([]int{1, 2})
	if len(pool) != 3 {
		t.Errorf("expected 3 aircraft questions despite missing rank pool, got %d", len(pool))
	}
}

func TestPickQuestion_UniformMember(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "aircraftQuestions.json", aircraftJSON)
	writeFile(t, dir, "rankQuestions.json", rankJSON)

	s := NewStore(dir)

	for i := 0; i < 20; i++ {
		q, ok := s.PickQuestion([]int{1, 2})
		if !ok {
			t.Fatal("expected a question")
		}
		var record struct {
			Question string `json:"question"`
		}
		if err := json.Unmarshal(q, &record); err != nil {
			t.Fatalf("picked record is not valid JSON: %v", err)
		}
		if record.Question == "" {
			t.Error("picked record has no question field")
		}
	}
}

func TestPickQuestion_EmptyPool(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "aircraftQuestions.json", aircraftJSON)
	writeFile(t, dir, "rankQuestions.json", rankJSON)

	s := NewStore(dir)
	if _, ok := s.PickQuestion([]int{99}); ok {
		t.Error("expected no question for unmatched LLAB filter")
	}
}
