package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/rs/zerolog"
)

// DefaultFileName is the manifest file name used when none is configured.
const DefaultFileName = "manifest.json"

// Entry records the last successful backup of one source file. Entries
// are keyed in the manifest by the file's slash-separated path relative
// to the source root.
type Entry struct {
	Hash           string    `json:"hash"`
	LastBackupTime time.Time `json:"last_backup_time"`
	BackupPath     string    `json:"backup_path"`
}

// Manifest maps source-relative paths to their backup records. Entries
// are never pruned: a file deleted from the source keeps its entry until
// the manifest itself is removed.
type Manifest map[string]Entry

// Clone returns a copy safe to mutate independently of m.
func (m Manifest) Clone() Manifest {
	out := make(Manifest, len(m))
	for path, entry := range m {
		out[path] = entry
	}
	return out
}

// Paths returns the tracked paths in sorted order. Map iteration order
// is not stable; reports and listings need a deterministic one.
func (m Manifest) Paths() []string {
	paths := make([]string, 0, len(m))
	for path := range m {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// JSONStore persists manifests as pretty-printed JSON documents.
type JSONStore struct {
	log zerolog.Logger
}

func NewJSONStore(log zerolog.Logger) *JSONStore {
	return &JSONStore{log: log}
}

// Load reads the manifest at path. A missing or empty file yields an
// empty manifest. A file that fails to parse also yields an empty
// manifest after logging a warning: corruption costs the recorded
// history, not the run.
func (s *JSONStore) Load(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Manifest{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return Manifest{}, nil
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		s.log.Warn().Str("path", path).Err(err).Msg("manifest is corrupted, starting with an empty manifest")
		return Manifest{}, nil
	}
	if m == nil {
		m = Manifest{}
	}
	return m, nil
}

// Save serializes the full manifest to path, replacing prior content.
func (s *JSONStore) Save(path string, m Manifest) error {
	payload, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
