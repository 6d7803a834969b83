package retrieval

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// DirSource reads every *.txt file in a directory.
type DirSource struct {
	Dir string
}

func NewDirSource(dir string) *DirSource {
	return &DirSource{Dir: dir}
}

func (s *DirSource) Name() string { return "directory:" + s.Dir }

// Load creates the directory when missing. Unreadable and empty files are skipped.
func (s *DirSource) Load(ctx context.Context) ([]Document, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create docs dir: %w", err)
	}
	paths, err := filepath.Glob(filepath.Join(s.Dir, "*.txt"))
	if err != nil {
		return nil, fmt.Errorf("glob docs: %w", err)
	}
	sort.Strings(paths)

	docs := make([]Document, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b, err := os.ReadFile(path)
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("could not load document")
			continue
		}
		content := strings.TrimSpace(string(b))
		if content == "" {
			continue
		}
		docs = append(docs, Document{Name: filepath.Base(path), Content: content})
		log.Debug().Str("file", filepath.Base(path)).Msg("loaded document")
	}
	return docs, nil
}
