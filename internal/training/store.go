// Package training stores question/answer CSV files used to build a
// few-shot QA module.
package training

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidFilename = errors.New("invalid training file name")
	ErrFileTooLarge    = errors.New("training file too large")
)

// maxUploadBytes bounds a single uploaded file.
const maxUploadBytes = 10 << 20

// Example is one labelled question/answer pair.
type Example struct {
	Question string
	Answer   string
}

// Store is a directory of headerless two-column CSV files.
type Store struct {
	Dir string
}

func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

// Save writes r to the store under the base name of filename, replacing
// any existing file. Only .csv names are accepted.
func (s *Store) Save(filename string, r io.Reader) (string, error) {
	name := filepath.Base(filepath.Clean(strings.ReplaceAll(filename, "\\", "/")))
	if name == "." || name == "/" || name == ".." || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilename, filename)
	}
	if !strings.EqualFold(filepath.Ext(name), ".csv") {
		return "", fmt.Errorf("%w: %q is not a .csv file", ErrInvalidFilename, filename)
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create train dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.Dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, io.LimitReader(r, maxUploadBytes+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if n > maxUploadBytes {
		return "", fmt.Errorf("%w: %s exceeds %d bytes", ErrFileTooLarge, name, maxUploadBytes)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.Dir, name)); err != nil {
		return "", fmt.Errorf("store %s: %w", name, err)
	}
	return name, nil
}

// Load reads every CSV in the store. Files that fail to parse are logged and
// skipped; rows need at least two columns.
func (s *Store) Load() ([]Example, []string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create train dir: %w", err)
	}
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, nil, fmt.Errorf("read train dir: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			paths = append(paths, filepath.Join(s.Dir, e.Name()))
		}
	}
	sort.Strings(paths)

	var examples []Example
	var files []string
	for _, path := range paths {
		ex, err := readCSV(path)
		if err != nil {
			log.Error().Err(err).Str("file", filepath.Base(path)).Msg("error processing training file")
			continue
		}
		if len(ex) == 0 {
			continue
		}
		examples = append(examples, ex...)
		files = append(files, filepath.Base(path))
		log.Info().Str("file", filepath.Base(path)).Int("examples", len(ex)).Msg("processed training file")
	}
	return examples, files, nil
}

func readCSV(path string) ([]Example, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	out := make([]Example, 0, len(records))
	for i, rec := range records {
		if len(rec) < 2 {
			return nil, fmt.Errorf("line %d: expected question and answer columns", i+1)
		}
		q, a := strings.TrimSpace(rec[0]), strings.TrimSpace(rec[1])
		if q == "" && a == "" {
			continue
		}
		out = append(out, Example{Question: q, Answer: a})
	}
	return out, nil
}
