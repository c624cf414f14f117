package static

import (
	"io/fs"
	"testing"
)

func TestEmbeddedAssets(t *testing.T) {
	for _, name := range []string{"styles.css", "grid.js"} {
		data, err := fs.ReadFile(Files, name)
		if err != nil {
			t.Fatalf("missing embedded asset %s: %v", name, err)
		}
		if len(data) == 0 {
			t.Errorf("embedded asset %s is empty", name)
		}
	}
}
