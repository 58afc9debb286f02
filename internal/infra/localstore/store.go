package localstore

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Store persists JSON blobs on local disk, one file per key. It mirrors the
// browser localStorage model the service replaces: a flat namespace of
// independently written values, each replaced wholesale on update.
//
// Writes go through a temp file + rename so a failure mid-write never leaves
// a partially-written blob behind.
type Store struct {
	dir string
	mu  sync.Mutex
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, sanitizeKey(key)+".json")
}

// readJSON loads a key into v. Missing keys report found=false. A corrupt
// blob is logged and treated as missing rather than crashing startup.
func (s *Store) readJSON(key string, v any) (found bool, err error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		log.Printf("localstore: discarding corrupt blob %q: %v", key, err)
		return false, nil
	}
	return true, nil
}

func (s *Store) writeJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	final := s.path(key)
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), final)
}

// sanitizeKey maps an arbitrary key (usually an email) onto a safe file name.
func sanitizeKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
