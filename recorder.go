package looksee

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jward/looksee/internal/store"
)

// Recorder persists matched members to a SQLite database, turning a scan
// into a queryable registry. Wire one into a Scanner with WithRecorder;
// the Scanner brackets each scan with Begin and Finish.
type Recorder struct {
	store  *store.Store
	scanID int64
	count  int
}

// NewRecorder opens (and migrates) the SQLite database at dbPath.
func NewRecorder(dbPath string) (*Recorder, error) {
	st, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := st.Migrate(); err != nil {
		st.Close()
		return nil, fmt.Errorf("migrate store: %w", err)
	}
	return &Recorder{store: st}, nil
}

// Close releases the underlying database.
func (r *Recorder) Close() error {
	return r.store.Close()
}

// Store returns the underlying Store for direct queries.
func (r *Recorder) Store() *Store {
	return r.store
}

// Begin opens a scan row for the given root path.
func (r *Recorder) Begin(rootPath string) error {
	id, err := r.store.InsertScan(&store.Scan{RootPath: rootPath, StartedAt: time.Now()})
	if err != nil {
		return fmt.Errorf("begin scan: %w", err)
	}
	r.scanID = id
	r.count = 0
	return nil
}

// Record persists one matched member under the current scan.
func (r *Recorder) Record(modulePath, name, kind string, obj any) error {
	_, err := r.store.InsertMatch(&store.Match{
		ScanID:     r.scanID,
		ModulePath: modulePath,
		Name:       name,
		Kind:       kind,
		Value:      encodeValue(obj),
		CreatedAt:  time.Now(),
	})
	if err != nil {
		return fmt.Errorf("record match: %w", err)
	}
	r.count++
	return nil
}

// Finish stamps the current scan row with its completion time and match
// count.
func (r *Recorder) Finish() error {
	return r.store.CompleteScan(r.scanID, r.count)
}

// Matches returns the rows recorded under the current scan.
func (r *Recorder) Matches() ([]*Match, error) {
	return r.store.MatchesByScan(r.scanID)
}

// encodeValue serializes a member value as JSON, falling back to its
// string form for values JSON cannot represent (functions, proxies).
func encodeValue(obj any) string {
	b, err := json.Marshal(obj)
	if err != nil {
		return fmt.Sprintf("%v", obj)
	}
	return string(b)
}
