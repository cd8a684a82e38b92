package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/25-spring-Capstone-Design-team1/tally-bot/internal/models"
)

const (
	detailDirName   = "settlement-detail"
	summaryFileName = "settlements.json"
)

// FileStore keeps each detail record as one JSON document and the summary
// list as a single JSON file, the layout the web backend serves directly.
type FileStore struct {
	dataDir string

	summaryMu sync.Mutex // guards the settlements.json read-modify-write

	idMu  sync.Mutex
	locks map[string]*sync.Mutex // per-id detail write locks
}

// Ensure FileStore implements Store
var _ Store = (*FileStore)(nil)

// NewFileStore creates the data layout under dataDir and an empty summary
// list if none exists yet.
func NewFileStore(dataDir string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Join(dataDir, detailDirName), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create detail directory: %w", err)
	}
	s := &FileStore{dataDir: dataDir, locks: make(map[string]*sync.Mutex)}
	if _, err := os.Stat(s.summaryPath()); errors.Is(err, os.ErrNotExist) {
		if err := writeJSONFile(s.summaryPath(), []models.SettlementSummary{}); err != nil {
			return nil, fmt.Errorf("failed to create summary file: %w", err)
		}
	}
	return s, nil
}

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// validateID keeps ids usable as file names. Anything else, including path
// traversal attempts from the HTTP layer, is rejected outright.
func validateID(id string) error {
	if !idPattern.MatchString(id) {
		return &ValidationError{Reason: fmt.Sprintf("invalid settlement id %q", id)}
	}
	return nil
}

func (s *FileStore) detailPath(id string) string {
	return filepath.Join(s.dataDir, detailDirName, id+".json")
}

func (s *FileStore) summaryPath() string {
	return filepath.Join(s.dataDir, summaryFileName)
}

// lockFor returns the write lock of one settlement id, creating it on first
// use.
func (s *FileStore) lockFor(id string) *sync.Mutex {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	mu, ok := s.locks[id]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[id] = mu
	}
	return mu
}

// Read returns the detail record stored under id.
func (s *FileStore) Read(ctx context.Context, id string) (*models.SettlementDetail, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.detailPath(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &PersistenceError{Op: "detail read", Cause: err}
	}
	var record models.SettlementDetail
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, &PersistenceError{Op: "detail decode", Cause: err}
	}
	return &record, nil
}

// Update persists the detail record as the source of truth, then replaces or
// appends its summary entry. A summary write failure leaves the detail in
// place and is reported; the projection stays repairable via RebuildSummary.
func (s *FileStore) Update(ctx context.Context, id string, record *models.SettlementDetail) (*models.SettlementDetail, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	if err := Validate(record); err != nil {
		return nil, err
	}

	stored := *record
	stored.ID = id

	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	if err := writeJSONFile(s.detailPath(id), &stored); err != nil {
		return nil, &PersistenceError{Op: "detail write", Cause: err}
	}

	if err := s.upsertSummary(DeriveSummary(&stored)); err != nil {
		slog.Warn("summary update failed after detail write", "id", id, "error", err)
		return nil, &PersistenceError{Op: "summary write", Cause: err}
	}
	return &stored, nil
}

// List returns the summary list in stored order.
func (s *FileStore) List(ctx context.Context) ([]models.SettlementSummary, error) {
	s.summaryMu.Lock()
	defer s.summaryMu.Unlock()
	list, err := s.readSummaryLocked()
	if err != nil {
		return nil, &PersistenceError{Op: "summary read", Cause: err}
	}
	return list, nil
}

// upsertSummary replaces the entry with the same id in place, or appends a
// new one. A missing entry is repaired silently: the summary list is always
// reconstructible from the detail records.
func (s *FileStore) upsertSummary(entry models.SettlementSummary) error {
	s.summaryMu.Lock()
	defer s.summaryMu.Unlock()

	list, err := s.readSummaryLocked()
	if err != nil {
		return err
	}
	replaced := false
	for i := range list {
		if list[i].ID == entry.ID {
			list[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		list = append(list, entry)
	}
	return writeJSONFile(s.summaryPath(), list)
}

func (s *FileStore) readSummaryLocked() ([]models.SettlementSummary, error) {
	data, err := os.ReadFile(s.summaryPath())
	if errors.Is(err, os.ErrNotExist) {
		return []models.SettlementSummary{}, nil
	}
	if err != nil {
		return nil, err
	}
	var list []models.SettlementSummary
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to decode summary list: %w", err)
	}
	return list, nil
}

// RebuildSummary re-derives the summary list from every stored detail
// record. Entries keep their position in the existing list where it is still
// readable; records the list never knew about are appended in id order.
func (s *FileStore) RebuildSummary(ctx context.Context) error {
	s.summaryMu.Lock()
	defer s.summaryMu.Unlock()

	dir := filepath.Join(s.dataDir, detailDirName)
	files, err := os.ReadDir(dir)
	if err != nil {
		return &PersistenceError{Op: "summary rebuild", Cause: err}
	}

	derived := make(map[string]models.SettlementSummary)
	var ids []string
	for _, f := range files {
		name := f.Name()
		if f.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		id := strings.TrimSuffix(name, ".json")
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return &PersistenceError{Op: "summary rebuild", Cause: err}
		}
		var record models.SettlementDetail
		if err := json.Unmarshal(data, &record); err != nil {
			return &PersistenceError{Op: "summary rebuild", Cause: fmt.Errorf("failed to decode %s: %w", name, err)}
		}
		record.ID = id
		derived[id] = DeriveSummary(&record)
		ids = append(ids, id)
	}
	sort.Strings(ids)

	// The existing list may itself be the corrupted side; treat a decode
	// failure as an empty list and fall back to id order.
	existing, err := s.readSummaryLocked()
	if err != nil {
		existing = nil
	}

	list := make([]models.SettlementSummary, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, entry := range existing {
		if d, ok := derived[entry.ID]; ok && !seen[entry.ID] {
			list = append(list, d)
			seen[entry.ID] = true
		}
	}
	for _, id := range ids {
		if !seen[id] {
			list = append(list, derived[id])
		}
	}

	if err := writeJSONFile(s.summaryPath(), list); err != nil {
		return &PersistenceError{Op: "summary rebuild", Cause: err}
	}
	return nil
}

// writeJSONFile writes v as indented JSON through a temp file and a rename,
// so a crash mid-write never leaves a truncated document behind.
func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
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
	return os.Rename(tmp.Name(), path)
}
