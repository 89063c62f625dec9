package problem

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"go.uber.org/zap"
)

const (
	ArtifactPrefix = "problem_"
	ArtifactExt    = ".json"
	ManifestName   = "index.json"
)

var artifactNameRe = regexp.MustCompile(`^problem_(\d{4,})\.json$`)

func ArtifactName(id int) string {
	return fmt.Sprintf("%s%04d%s", ArtifactPrefix, id, ArtifactExt)
}

// ParseArtifactName returns the identifier encoded in an artifact file
// name.
func ParseArtifactName(name string) (int, bool) {
	m := artifactNameRe.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	id, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return id, true
}

type manifestFile struct {
	NextID   *int     `json:"next_id,omitempty"`
	Problems []string `json:"problems"`
}

// Index allocates artifact identifiers and keeps the manifest of every
// artifact written to an output directory, across runs.
type Index struct {
	dir   string
	next  int
	files []string
	log   *zap.Logger
}

// OpenIndex creates dir when needed and reads its index.
func OpenIndex(dir string, log *zap.Logger) (*Index, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return ReadIndex(dir, log)
}

// ReadIndex loads the manifest in an existing dir and settles the next
// identifier: the stored counter, raised past any artifact listed in the
// manifest or present on disk. It never creates the directory.
func ReadIndex(dir string, log *zap.Logger) (*Index, error) {
	if log == nil {
		log = zap.NewNop()
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	maxID, names, err := ScanArtifacts(dir)
	if err != nil {
		return nil, err
	}
	idx := &Index{dir: dir, log: log}

	files, counter, err := readManifest(filepath.Join(dir, ManifestName))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		log.Warn("manifest unreadable, rebuilding from directory", zap.String("dir", dir), zap.Error(err))
		files = names
	}
	idx.files = files
	for _, name := range files {
		if id, ok := ParseArtifactName(name); ok && id > maxID {
			maxID = id
		}
	}

	if counter != nil {
		idx.next = *counter
	}
	if maxID+1 > idx.next {
		if counter != nil {
			log.Warn("manifest counter behind known artifacts",
				zap.Int("counter", *counter), zap.Int("max_id", maxID))
		}
		idx.next = maxID + 1
	}
	return idx, nil
}

// ScanArtifacts lists artifact files in dir. maxID is -1 when there are
// none.
func ScanArtifacts(dir string) (int, []string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return -1, nil, err
	}
	maxID := -1
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id, ok := ParseArtifactName(entry.Name())
		if !ok {
			continue
		}
		names = append(names, entry.Name())
		if id > maxID {
			maxID = id
		}
	}
	sort.Strings(names)
	return maxID, names, nil
}

// readManifest accepts the current object form and a bare array of
// file names.
func readManifest(path string) ([]string, *int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	var legacy []string
	if err := json.Unmarshal(data, &legacy); err == nil {
		return legacy, nil, nil
	}
	var m manifestFile
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if m.NextID != nil && *m.NextID < 0 {
		return m.Problems, nil, nil
	}
	return m.Problems, m.NextID, nil
}

func (x *Index) Dir() string {
	return x.dir
}

func (x *Index) NextID() int {
	return x.next
}

// Allocate hands out the next identifier.
func (x *Index) Allocate() int {
	id := x.next
	x.next++
	return id
}

// Record appends an artifact name and persists the manifest right away.
func (x *Index) Record(name string) error {
	x.files = append(x.files, name)
	return x.Save()
}

func (x *Index) Files() []string {
	out := make([]string, len(x.files))
	copy(out, x.files)
	return out
}

func (x *Index) Save() error {
	next := x.next
	files := x.files
	if files == nil {
		files = []string{}
	}
	data, err := json.MarshalIndent(manifestFile{NextID: &next, Problems: files}, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(x.dir, ManifestName), append(data, '\n'), 0o644)
}

// Close writes the final manifest.
func (x *Index) Close() error {
	return x.Save()
}
