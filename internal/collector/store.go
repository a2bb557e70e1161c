package collector

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/goccy/go-json"
	"github.com/synthlab/alphalog/pkg/types"
	"go.uber.org/zap"
)

const snapshotSuffix = "_snapshot.json"

// Store keeps snapshots on disk as {dir}/YYYY-MM-DD/HH-MM-SS_snapshot.json.
type Store struct {
	dir    string
	logger *zap.Logger
}

// NewStore creates a snapshot store rooted at dir.
func NewStore(dir string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{dir: dir, logger: logger}
}

// Path returns where a snapshot taken at the snapshot's timestamp is stored.
func (s *Store) Path(snap *types.Snapshot) string {
	ts := snap.Timestamp.UTC()
	return filepath.Join(s.dir, ts.Format("2006-01-02"), ts.Format("15-04-05")+snapshotSuffix)
}

// Save writes the snapshot as indented JSON and returns its path.
func (s *Store) Save(snap *types.Snapshot) (string, error) {
	path := s.Path(snap)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	s.logger.Info("snapshot-saved",
		zap.String("path", path),
		zap.Float64("size-kb", float64(len(data))/1024))
	return path, nil
}

// Load reads one snapshot file.
func (s *Store) Load(path string) (*types.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snap types.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	return &snap, nil
}

// paths lists snapshot files in chronological order.
func (s *Store) paths() ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(s.dir, "*", "*"+snapshotSuffix))
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}

// LoadAll reads every snapshot, oldest first. Malformed files and files
// without a timestamp are skipped.
func (s *Store) LoadAll() ([]*types.Snapshot, error) {
	paths, err := s.paths()
	if err != nil {
		return nil, err
	}

	snaps := make([]*types.Snapshot, 0, len(paths))
	for _, p := range paths {
		snap, err := s.Load(p)
		if err != nil {
			s.logger.Warn("snapshot-skipped", zap.String("path", p), zap.Error(err))
			continue
		}
		if snap.Timestamp.IsZero() {
			continue
		}
		snaps = append(snaps, snap)
	}
	sort.SliceStable(snaps, func(i, j int) bool {
		return snaps[i].Timestamp.Before(snaps[j].Timestamp)
	})
	return snaps, nil
}

// Latest returns the n most recent readable snapshots, newest first.
func (s *Store) Latest(n int) ([]*types.Snapshot, error) {
	paths, err := s.paths()
	if err != nil {
		return nil, err
	}

	out := make([]*types.Snapshot, 0, n)
	for i := len(paths) - 1; i >= 0 && len(out) < n; i-- {
		snap, err := s.Load(paths[i])
		if err != nil {
			s.logger.Warn("snapshot-skipped", zap.String("path", paths[i]), zap.Error(err))
			continue
		}
		out = append(out, snap)
	}
	return out, nil
}
