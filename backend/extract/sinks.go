package extract

import (
	"time"

	"github.com/google/uuid"

	"kerndata/internal/store"
	"kerndata/snapshot"
)

// #region json-sink

// JSONSink accumulates region records in memory and writes one snapshot
// JSON document when closed.
type JSONSink struct {
	path string
	snap snapshot.Snapshot
}

// NewJSONSink returns a sink that will write the snapshot to path at Close.
func NewJSONSink(path, label string) *JSONSink {
	return &JSONSink{
		path: path,
		snap: snapshot.Snapshot{
			RunID:     uuid.New().String(),
			Label:     label,
			CreatedAt: time.Now().UTC(),
		},
	}
}

// RunID returns the generated run identifier.
func (s *JSONSink) RunID() string { return s.snap.RunID }

// WriteRegion appends one region record to the in-memory snapshot.
func (s *JSONSink) WriteRegion(rec snapshot.RegionRecord) error {
	s.snap.Regions = append(s.snap.Regions, rec)
	return nil
}

// Close writes the snapshot file.
func (s *JSONSink) Close() error {
	return s.snap.WriteFile(s.path)
}

// #endregion json-sink

// #region store-sink

// StoreSink streams region records into a sqlite capture database as they
// complete, keeping memory flat for long runs.
type StoreSink struct {
	st    *store.Store
	runID string
}

// NewStoreSink opens (or creates) the capture database at dbPath and
// registers a new run in it.
func NewStoreSink(dbPath, label string) (*StoreSink, error) {
	st, err := store.NewStore(dbPath)
	if err != nil {
		return nil, err
	}
	runID, err := st.BeginRun(label)
	if err != nil {
		st.Close()
		return nil, err
	}
	return &StoreSink{st: st, runID: runID}, nil
}

// RunID returns the registered run identifier.
func (s *StoreSink) RunID() string { return s.runID }

// WriteRegion persists one region record.
func (s *StoreSink) WriteRegion(rec snapshot.RegionRecord) error {
	return s.st.AppendRegion(s.runID, rec)
}

// Close closes the capture database.
func (s *StoreSink) Close() error {
	return s.st.Close()
}

// #endregion store-sink
