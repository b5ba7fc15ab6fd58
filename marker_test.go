package looksee

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
)

func TestReadMarker(t *testing.T) {
	fsys := fstest.MapFS{
		"ignored/.looksee":   {Data: []byte(`{"ignore": true}`)},
		"kept/.looksee":      {Data: []byte(`{"ignore": false}`)},
		"extra/.looksee":     {Data: []byte(`{"ignore": true, "owner": "infra"}`)},
		"malformed/.looksee": {Data: []byte(`{"ignore": tru`)},
		"empty/.looksee":     {Data: []byte(`{}`)},
		"bare/placeholder":   {Data: []byte("")},
	}

	tests := []struct {
		dir    string
		ignore bool
	}{
		{"ignored", true},
		{"kept", false},
		{"extra", true},
		{"malformed", false},
		{"empty", false},
		{"bare", false},
		{"nonexistent", false},
	}
	for _, tt := range tests {
		t.Run(tt.dir, func(t *testing.T) {
			assert.Equal(t, tt.ignore, readMarker(fsys, tt.dir).Ignore)
		})
	}
}
