// Package artifact implements the on-disk contract between pipeline stages.
package artifact

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// RawDataDir is the directory under the data root that holds every artifact.
const RawDataDir = "raw_data"

// Artifact paths relative to raw_data/.
const (
	ProfileFile      = "step_1/bbb_profile_data.json"
	LogoFile         = "step_1/logo.png"
	ReviewsFile      = "step_1/reviews.json"
	SentimentFile    = "step_2/sentiment_reviews.json"
	ServicesFile     = "step_2/roofing_services.json"
	ResearchFile     = "step_2/roofing_services_detailed.json"
	PagesDir         = "step_3"
	ServicePagesFile = "step_4/services.json"
	CombinedFile     = "step_4/combined_data.json"
	ColorsFile       = "colors_output.json"
	ShinglesDir      = "shingles"
	CatalogDir       = "shingles/catalog"
	CatalogFile      = "shingles/catalog/catalog.json"
	ByTypeDir        = "shingles/by_type"
	CategoriesFile   = "shingles/shingle_categories.json"
)

// Status classifies the result of reading an artifact.
type Status string

const (
	StatusOK        Status = "ok"
	StatusMissing   Status = "missing"
	StatusMalformed Status = "malformed"
)

// Sentinel errors matched with errors.Is.
var (
	ErrMissing   = errors.New("artifact missing")
	ErrMalformed = errors.New("artifact malformed")
)

// ReadError is returned by the read operations and carries the status.
type ReadError struct {
	Path   string
	Status Status
	Err    error
}

func (e *ReadError) Error() string {
	if e.Err == nil {
		return "artifact: " + string(e.Status) + ": " + e.Path
	}
	return "artifact: " + string(e.Status) + ": " + e.Path + ": " + e.Err.Error()
}

// Is maps the status onto the sentinel errors.
func (e *ReadError) Is(target error) bool {
	switch target {
	case ErrMissing:
		return e.Status == StatusMissing
	case ErrMalformed:
		return e.Status == StatusMalformed
	}
	return false
}

func (e *ReadError) Unwrap() error { return e.Err }

// StatusOf returns the read status carried by err.
func StatusOf(err error) Status {
	if err == nil {
		return StatusOK
	}
	var re *ReadError
	if errors.As(err, &re) {
		return re.Status
	}
	return StatusMalformed
}

// Store resolves stage-scoped paths under a data root and reads and writes
// artifacts. Writes are atomic per file. There is no locking: only one
// stage runs at a time.
type Store struct {
	root string
}

// NewStore creates a Store rooted at the data directory.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Root returns the data directory.
func (s *Store) Root() string { return s.root }

// Path resolves an artifact path relative to raw_data/.
func (s *Store) Path(rel string) string {
	return filepath.Join(s.root, RawDataDir, filepath.FromSlash(rel))
}

// Exists reports whether the artifact is present.
func (s *Store) Exists(rel string) bool {
	_, err := os.Stat(s.Path(rel))
	return err == nil
}

// EnsureDir creates an artifact directory and its parents.
func (s *Store) EnsureDir(rel string) error {
	if err := os.MkdirAll(s.Path(rel), 0o755); err != nil {
		return eris.Wrapf(err, "artifact: mkdir %s", rel)
	}
	return nil
}

// RemoveMatching deletes the files in dir whose names match the glob
// pattern. A missing dir is not an error.
func (s *Store) RemoveMatching(dir, pattern string) error {
	matches, err := filepath.Glob(filepath.Join(s.Path(dir), pattern))
	if err != nil {
		return eris.Wrapf(err, "artifact: glob %s/%s", dir, pattern)
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return eris.Wrapf(err, "artifact: remove %s", m)
		}
	}
	return nil
}

// ReadJSON decodes the artifact into dst. The returned error is a *ReadError
// whose status is missing or malformed.
func (s *Store) ReadJSON(rel string, dst any) error {
	data, err := s.readBytes(rel)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return &ReadError{Path: rel, Status: StatusMalformed, Err: err}
	}
	return nil
}

// ReadValidated checks the artifact against its registered JSON schema
// before decoding it into dst. Artifacts without a schema are only decoded.
func (s *Store) ReadValidated(rel string, dst any) error {
	data, err := s.readBytes(rel)
	if err != nil {
		return err
	}
	if err := Validate(rel, data); err != nil {
		return &ReadError{Path: rel, Status: StatusMalformed, Err: err}
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return &ReadError{Path: rel, Status: StatusMalformed, Err: err}
	}
	return nil
}

// ReadBytes returns the raw artifact content.
func (s *Store) ReadBytes(rel string) ([]byte, error) {
	return s.readBytes(rel)
}

func (s *Store) readBytes(rel string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(rel))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &ReadError{Path: rel, Status: StatusMissing}
		}
		return nil, &ReadError{Path: rel, Status: StatusMalformed, Err: err}
	}
	return data, nil
}

// WriteJSON encodes v with two-space indentation and writes it atomically.
func (s *Store) WriteJSON(rel string, v any) error {
	data, err := Marshal(v)
	if err != nil {
		return eris.Wrapf(err, "artifact: encode %s", rel)
	}
	return s.WriteFile(rel, data)
}

// WriteFile writes data atomically: a temp file in the destination
// directory is synced and renamed over the target, so readers observe
// either the old or the new content.
func (s *Store) WriteFile(rel string, data []byte) error {
	path := s.Path(rel)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "artifact: mkdir for %s", rel)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return eris.Wrapf(err, "artifact: create temp for %s", rel)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return eris.Wrapf(err, "artifact: write %s", rel)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return eris.Wrapf(err, "artifact: sync %s", rel)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return eris.Wrapf(err, "artifact: close %s", rel)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return eris.Wrapf(err, "artifact: chmod %s", rel)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return eris.Wrapf(err, "artifact: rename %s", rel)
	}
	return nil
}

// Marshal encodes v the way every artifact is written: indented, HTML
// characters unescaped, trailing newline.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
