package looksee

import (
	"encoding/json"
	"io/fs"
	"path"
)

// markerFileName is the per-directory marker file that can exclude a
// subtree from scanning.
const markerFileName = ".looksee"

// markerData is the parsed form of a directory's marker file. Keys other
// than "ignore" are accepted and discarded.
type markerData struct {
	Ignore bool `json:"ignore"`
}

// readMarker reads dir's marker file. Absence and malformed content are
// indistinguishable: both yield the zero value, meaning do not skip.
func readMarker(fsys fs.FS, dir string) markerData {
	data, err := fs.ReadFile(fsys, path.Join(dir, markerFileName))
	if err != nil {
		return markerData{}
	}
	var md markerData
	if err := json.Unmarshal(data, &md); err != nil {
		return markerData{}
	}
	return md
}
