package store

import "time"

// Scan is one recorded invocation of the scanner.
type Scan struct {
	ID          int64
	RootPath    string
	StartedAt   time.Time
	CompletedAt *time.Time
	MatchCount  int
}

// Match is one member that satisfied the predicate during a scan.
type Match struct {
	ID         int64
	ScanID     int64
	ModulePath string
	Name       string
	Kind       string
	Value      string // JSON where the value is serializable
	CreatedAt  time.Time
}
