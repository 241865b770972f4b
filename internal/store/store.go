// Package store persists capture runs in a sqlite database so long
// campaigns do not have to hold every region in memory before export.
package store

import (
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"kerndata/capture"
	"kerndata/snapshot"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT PRIMARY KEY,
	label       TEXT,
	created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS regions (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT NOT NULL,
	seq         INTEGER NOT NULL,
	module      TEXT NOT NULL,
	region      TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE TABLE IF NOT EXISTS variables (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	region_id   INTEGER NOT NULL,
	phase       TEXT NOT NULL,
	idx         INTEGER NOT NULL,
	name        TEXT NOT NULL,
	kind        TEXT NOT NULL,
	dims_json   TEXT,
	payload     BLOB NOT NULL,
	FOREIGN KEY (region_id) REFERENCES regions(id)
);
`

// #endregion schema

// #region store-struct

// Store manages capture runs in sqlite.
type Store struct {
	db *sql.DB
}

// RunInfo is one row of the runs table plus its region count.
type RunInfo struct {
	RunID     string
	Label     string
	CreatedAt time.Time
	Regions   int
}

// #endregion store-struct

// #region constructor

// NewStore opens a sqlite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for ad-hoc queries by tooling.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion constructor

// #region begin-run

// BeginRun registers a new run and returns its generated id.
func (s *Store) BeginRun(label string) (string, error) {
	id := uuid.New().String()
	_, err := s.db.Exec(
		`INSERT INTO runs (run_id, label, created_at) VALUES (?, ?, ?)`,
		id, nullIfEmpty(label), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// #endregion begin-run

// #region append-region

// AppendRegion writes one region record with all its variables atomically.
func (s *Store) AppendRegion(runID string, rec snapshot.RegionRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO regions (run_id, seq, module, region) VALUES (?, ?, ?, ?)`,
		runID, rec.Seq, rec.Module, rec.Region,
	)
	if err != nil {
		return fmt.Errorf("insert region: %w", err)
	}
	regionID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("region id: %w", err)
	}

	for _, phase := range []struct {
		name string
		vars []snapshot.VarRecord
	}{{"pre", rec.Pre}, {"post", rec.Post}} {
		for _, v := range phase.vars {
			if err := insertVariable(tx, regionID, phase.name, v); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

func insertVariable(tx *sql.Tx, regionID int64, phase string, v snapshot.VarRecord) error {
	kind, ok := capture.KindOf(v.Kind)
	if !ok {
		return fmt.Errorf("variable %q: unknown kind %q", v.Name, v.Kind)
	}

	var dimsJSON interface{}
	if len(v.Dims) > 0 {
		data, err := json.Marshal(v.Dims)
		if err != nil {
			return fmt.Errorf("marshal dims: %w", err)
		}
		dimsJSON = string(data)
	}

	_, err := tx.Exec(
		`INSERT INTO variables (region_id, phase, idx, name, kind, dims_json, payload)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		regionID, phase, v.Index, v.Name, v.Kind, dimsJSON, encodePayload(kind, v.Data),
	)
	if err != nil {
		return fmt.Errorf("insert variable %q: %w", v.Name, err)
	}
	return nil
}

// #endregion append-region

// #region load-run

// LoadRun reads one run back as a snapshot document.
func (s *Store) LoadRun(runID string) (*snapshot.Snapshot, error) {
	snap := &snapshot.Snapshot{RunID: runID}

	var label sql.NullString
	var createdStr string
	err := s.db.QueryRow(
		`SELECT label, created_at FROM runs WHERE run_id = ?`, runID,
	).Scan(&label, &createdStr)
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	if label.Valid {
		snap.Label = label.String
	}
	snap.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)

	rows, err := s.db.Query(
		`SELECT id, seq, module, region FROM regions WHERE run_id = ? ORDER BY seq ASC`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list regions: %w", err)
	}
	defer rows.Close()

	var regionIDs []int64
	for rows.Next() {
		var id int64
		var rec snapshot.RegionRecord
		if err := rows.Scan(&id, &rec.Seq, &rec.Module, &rec.Region); err != nil {
			return nil, fmt.Errorf("scan region: %w", err)
		}
		regionIDs = append(regionIDs, id)
		snap.Regions = append(snap.Regions, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, id := range regionIDs {
		pre, post, err := s.loadVariables(id)
		if err != nil {
			return nil, err
		}
		snap.Regions[i].Pre = pre
		snap.Regions[i].Post = post
	}
	return snap, nil
}

func (s *Store) loadVariables(regionID int64) (pre, post []snapshot.VarRecord, err error) {
	rows, err := s.db.Query(
		`SELECT phase, idx, name, kind, dims_json, payload
		 FROM variables WHERE region_id = ? ORDER BY id ASC`, regionID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("list variables: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var phase string
		var v snapshot.VarRecord
		var dimsJSON sql.NullString
		var payload []byte
		if err := rows.Scan(&phase, &v.Index, &v.Name, &v.Kind, &dimsJSON, &payload); err != nil {
			return nil, nil, fmt.Errorf("scan variable: %w", err)
		}
		if dimsJSON.Valid {
			if err := json.Unmarshal([]byte(dimsJSON.String), &v.Dims); err != nil {
				return nil, nil, fmt.Errorf("unmarshal dims: %w", err)
			}
		}
		kind, ok := capture.KindOf(v.Kind)
		if !ok {
			return nil, nil, fmt.Errorf("variable %q: unknown kind %q", v.Name, v.Kind)
		}
		v.Data = decodePayload(kind, payload)
		if phase == "post" {
			post = append(post, v)
		} else {
			pre = append(pre, v)
		}
	}
	return pre, post, rows.Err()
}

// #endregion load-run

// #region list-runs

// ListRuns returns the most recent runs with their region counts.
func (s *Store) ListRuns(limit int) ([]RunInfo, error) {
	rows, err := s.db.Query(
		`SELECT r.run_id, r.label, r.created_at, COUNT(g.id)
		 FROM runs r LEFT JOIN regions g ON g.run_id = r.run_id
		 GROUP BY r.run_id ORDER BY r.created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var infos []RunInfo
	for rows.Next() {
		var info RunInfo
		var label sql.NullString
		var createdStr string
		if err := rows.Scan(&info.RunID, &label, &createdStr, &info.Regions); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if label.Valid {
			info.Label = label.String
		}
		info.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// LatestRunID returns the most recently created run.
func (s *Store) LatestRunID() (string, error) {
	var id string
	err := s.db.QueryRow(
		`SELECT run_id FROM runs ORDER BY created_at DESC LIMIT 1`,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("latest run: %w", err)
	}
	return id, nil
}

// #endregion list-runs

// #region payload-encoding

// Payloads are stored in the native width of the element kind,
// little-endian: 4 bytes for float32/int32, 8 for float64.
func encodePayload(kind capture.Kind, data []float64) []byte {
	switch kind {
	case capture.Float64:
		buf := make([]byte, len(data)*8)
		for i, x := range data {
			binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(x))
		}
		return buf
	case capture.Float32:
		buf := make([]byte, len(data)*4)
		for i, x := range data {
			binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(float32(x)))
		}
		return buf
	default:
		buf := make([]byte, len(data)*4)
		for i, x := range data {
			binary.LittleEndian.PutUint32(buf[i*4:], uint32(int32(x)))
		}
		return buf
	}
}

func decodePayload(kind capture.Kind, b []byte) []float64 {
	switch kind {
	case capture.Float64:
		out := make([]float64, len(b)/8)
		for i := range out {
			out[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
		}
		return out
	case capture.Float32:
		out := make([]float64, len(b)/4)
		for i := range out {
			out[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:])))
		}
		return out
	default:
		out := make([]float64, len(b)/4)
		for i := range out {
			out[i] = float64(int32(binary.LittleEndian.Uint32(b[i*4:])))
		}
		return out
	}
}

// #endregion payload-encoding

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
