package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"vmbroker/internal/orchestrator"
)

// FileStore keeps records in a JSON file keyed by instance ID.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a file-backed store. The file is created on the
// first Put.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Put(ctx context.Context, record orchestrator.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}
	records[record.ID] = record
	return s.save(records)
}

func (s *FileStore) Get(ctx context.Context, instanceID string) (orchestrator.Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return orchestrator.Record{}, false, err
	}
	record, ok := records[instanceID]
	return record, ok, nil
}

func (s *FileStore) Delete(ctx context.Context, instanceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}
	delete(records, instanceID)
	return s.save(records)
}

func (s *FileStore) List(ctx context.Context) ([]orchestrator.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return nil, err
	}
	list := make([]orchestrator.Record, 0, len(records))
	for _, record := range records {
		list = append(list, record)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt < list[j].CreatedAt
	})
	return list, nil
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) load() (map[string]orchestrator.Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]orchestrator.Record), nil
		}
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}

	records := make(map[string]orchestrator.Record)
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse ledger: %w", err)
	}
	return records, nil
}

func (s *FileStore) save(records map[string]orchestrator.Record) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal ledger: %w", err)
	}
	return os.WriteFile(s.path, data, 0644)
}
