package docgroup

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveUnderRoot(t *testing.T) {
	root := "/repo"

	tests := []struct {
		name    string
		path    string
		wantRel string
		wantOK  bool
	}{
		{"plain relative", "ocr/page_001.ocr.json", "ocr/page_001.ocr.json", true},
		{"root itself", ".", ".", true},
		{"dot segments collapse inside", "ocr/../ocr/a.json", "ocr/a.json", true},
		{"parent escape", "../secrets.json", "../secrets.json", false},
		{"deep escape", "ocr/../../etc/passwd", "../etc/passwd", false},
		{"absolute inside", "/repo/ocr/a.json", "ocr/a.json", true},
		{"absolute outside", "/etc/passwd", "../etc/passwd", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			abs, rel, ok := resolveUnderRoot(root, tt.path)
			assert.Equal(t, tt.wantOK, ok)
			if tt.path != "" {
				assert.True(t, filepath.IsAbs(abs))
			}
			assert.Equal(t, tt.wantRel, rel)
		})
	}
}
