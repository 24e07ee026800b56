package snapshot

import (
	"fmt"
	"strings"

	"github.com/simular-fi/simular-go/db"
)

const snapshotPrefix = "snapshot:"

// Store persists named snapshot documents in LevelDB as their canonical
// JSON encoding.
type Store struct {
	db *db.LevelDB
}

// OpenStore opens (or creates) a snapshot database at path.
func OpenStore(path string) (*Store, error) {
	ldb, err := db.NewLevelDB(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot store: %v", err)
	}
	return &Store{db: ldb}, nil
}

// Save writes the document under name, overwriting any previous
// snapshot with the same name.
func (s *Store) Save(name string, doc *Document) error {
	if name == "" {
		return fmt.Errorf("snapshot name must not be empty")
	}
	data, err := doc.Encode()
	if err != nil {
		return err
	}
	return s.db.Put([]byte(snapshotPrefix+name), data)
}

// Load reads the document stored under name.
func (s *Store) Load(name string) (*Document, error) {
	data, err := s.db.Get([]byte(snapshotPrefix + name))
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot %s: %v", name, err)
	}
	if data == nil {
		return nil, fmt.Errorf("snapshot %s not found", name)
	}
	return Decode(data)
}

// Delete removes the snapshot stored under name.
func (s *Store) Delete(name string) error {
	return s.db.Delete([]byte(snapshotPrefix + name))
}

// List returns the names of all stored snapshots in key order.
func (s *Store) List() ([]string, error) {
	var names []string
	err := s.db.IteratePrefix([]byte(snapshotPrefix), func(key, _ []byte) error {
		names = append(names, strings.TrimPrefix(string(key), snapshotPrefix))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

// Close shuts down the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
