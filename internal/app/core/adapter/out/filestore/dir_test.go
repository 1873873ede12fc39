package filestore

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"testing"
)

func TestSaveOpenRemove(t *testing.T) {
	d, err := NewDir(t.TempDir())
	if err != nil {
		t.Fatalf("NewDir: %v", err)
	}
	rel, err := d.Save(PhotosDir, ".JPG", strings.NewReader("img"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasPrefix(rel, "photos/") || !strings.HasSuffix(rel, ".jpg") {
		t.Fatalf("rel = %q", rel)
	}
	f, err := d.Open(rel)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	f.Close()

	if err := d.Remove(rel); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := d.Remove(rel); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("second Remove err = %v", err)
	}
}

func TestPathRejectsEscapes(t *testing.T) {
	d, err := NewDir(t.TempDir())
	if err != nil {
		t.Fatalf("NewDir: %v", err)
	}
	for _, rel := range []string{"", "../secret", "receipts/../../x", string(os.PathSeparator) + "etc/passwd"} {
		if _, err := d.Path(rel); !errors.Is(err, ErrOutsideRoot) {
			t.Errorf("Path(%q) err = %v", rel, err)
		}
	}
	if _, err := d.Path("receipts/TRX-1.pdf"); err != nil {
		t.Errorf("Path(valid) err = %v", err)
	}
}
