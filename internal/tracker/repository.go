package tracker

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
)

// Collection names one of the two persisted record sets.
type Collection string

// Collections.
const (
	CollectionOpen     Collection = "open_edges"
	CollectionResolved Collection = "resolved_edges"
)

// Repository loads and saves whole collections. Saves replace the stored
// collection.
type Repository interface {
	Load(c Collection) ([]Record, error)
	Save(c Collection, records []Record) error
}

// FileRepository stores each collection as an indented JSON array in Dir.
type FileRepository struct {
	dir string
}

// NewFileRepository creates the directory if needed.
func NewFileRepository(dir string) (*FileRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create edges dir: %w", err)
	}
	return &FileRepository{dir: dir}, nil
}

func (f *FileRepository) path(c Collection) string {
	return filepath.Join(f.dir, string(c)+".json")
}

// Load returns an empty collection when the file does not exist yet.
func (f *FileRepository) Load(c Collection) ([]Record, error) {
	data, err := os.ReadFile(f.path(c))
	if errors.Is(err, os.ErrNotExist) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c, err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c, err)
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

// Save writes to a temp file and renames it over the collection so readers
// never see a partial file.
func (f *FileRepository) Save(c Collection, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", c, err)
	}

	tmp, err := os.CreateTemp(f.dir, string(c)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", c, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", c, err)
	}
	if err := os.Rename(tmpName, f.path(c)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", c, err)
	}
	return nil
}

// MemoryRepository keeps collections in memory.
type MemoryRepository struct {
	mu          sync.RWMutex
	collections map[Collection][]Record
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{collections: make(map[Collection][]Record)}
}

// Load returns a copy of the collection.
func (m *MemoryRepository) Load(c Collection) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Record, len(m.collections[c]))
	copy(out, m.collections[c])
	return out, nil
}

// Save stores a copy of records.
func (m *MemoryRepository) Save(c Collection, records []Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]Record, len(records))
	copy(stored, records)
	m.collections[c] = stored
	return nil
}
