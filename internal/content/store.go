package content

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Store reads LLAB reference text and static question pools from a data
// directory. It holds no state beyond the directory path; every lookup hits
// the filesystem so content updates need no restart.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// LoadReference concatenates the reference text for the given LLAB numbers.
// Missing or unreadable files are skipped with a log line: partial content is
// an accepted degraded mode, never a failure.
func (s *Store) LoadReference(llabNumbers []int) string {
	var parts []string
	for _, n := range llabNumbers {
		path := filepath.Join(s.dir, fmt.Sprintf("LLAB%d.txt", n))
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("skipping unavailable LLAB content", "llab", n, "error", err)
			continue
		}
		text := strings.TrimSpace(string(data))
		parts = append(parts, text)
		slog.Info("loaded LLAB content", "llab", n, "chars", len(text))
	}
	return strings.Join(parts, "\n\n---\n\n")
}
