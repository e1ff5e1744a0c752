package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"radio-survival/internal/game"
)

// JSONStore keeps run records in a local JSON file
type JSONStore struct {
	filePath string
	mutex    sync.RWMutex
	data     *JSONData
}

// JSONData is the file layout. Runs are keyed by decimal run ID.
type JSONData struct {
	Runs map[string]game.RunRecord `json:"runs"`
}

// NewJSONStore opens or creates the file at filePath.
func NewJSONStore(filePath string) (*JSONStore, error) {
	store := &JSONStore{
		filePath: filePath,
		data:     &JSONData{Runs: make(map[string]game.RunRecord)},
	}

	if _, err := os.Stat(filePath); err == nil {
		if err := store.loadFromFile(); err != nil {
			return nil, fmt.Errorf("failed to load JSON store: %v", err)
		}
	} else {
		if dir := filepath.Dir(filePath); dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create JSON store directory: %v", err)
			}
		}
		if err := store.saveToFile(); err != nil {
			return nil, fmt.Errorf("failed to create JSON store file: %v", err)
		}
	}

	return store, nil
}

func (js *JSONStore) loadFromFile() error {
	js.mutex.Lock()
	defer js.mutex.Unlock()

	file, err := os.ReadFile(js.filePath)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(file, js.data); err != nil {
		return err
	}
	if js.data.Runs == nil {
		js.data.Runs = make(map[string]game.RunRecord)
	}
	return nil
}

// saveToFile writes the whole data set. Callers hold the lock.
func (js *JSONStore) saveToFile() error {
	data, err := json.MarshalIndent(js.data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(js.filePath, data, 0644)
}

// SaveRun stores or replaces a run record
func (js *JSONStore) SaveRun(rec game.RunRecord) error {
	js.mutex.Lock()
	defer js.mutex.Unlock()

	js.data.Runs[strconv.FormatUint(rec.RunID, 10)] = rec
	return js.saveToFile()
}

// LoadRun loads a run record by ID
func (js *JSONStore) LoadRun(runID uint64) (*game.RunRecord, error) {
	js.mutex.RLock()
	defer js.mutex.RUnlock()

	rec, ok := js.data.Runs[strconv.FormatUint(runID, 10)]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, runID)
	}
	return &rec, nil
}

// TopRuns returns up to limit runs, longest survival first
func (js *JSONStore) TopRuns(limit int) ([]game.RunRecord, error) {
	js.mutex.RLock()
	runs := make([]game.RunRecord, 0, len(js.data.Runs))
	for _, rec := range js.data.Runs {
		runs = append(runs, rec)
	}
	js.mutex.RUnlock()

	sort.Slice(runs, func(i, j int) bool { return better(runs[i], runs[j]) })
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// LastRunID returns the highest stored run ID
func (js *JSONStore) LastRunID() (uint64, error) {
	js.mutex.RLock()
	defer js.mutex.RUnlock()

	var last uint64
	for _, rec := range js.data.Runs {
		if rec.RunID > last {
			last = rec.RunID
		}
	}
	return last, nil
}

// Close flushes the data set to disk
func (js *JSONStore) Close() error {
	js.mutex.Lock()
	defer js.mutex.Unlock()
	return js.saveToFile()
}
