package zip

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
	"time"
)

func TestArchiveAssets(t *testing.T) {
	archive, err := ArchiveAssets([]Asset{
		{Filename: "original", MIME: "image/jpeg", Data: []byte("jpeg")},
		{Filename: "generated", MIME: "image/png", Data: []byte("png")},
		{Filename: "skipped", MIME: "image/png"},
		{Filename: "garden.webp", MIME: "image/png", Data: []byte("webp")},
	}, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ArchiveAssets returned error: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		t.Fatalf("zip.NewReader returned error: %v", err)
	}
	want := map[string]string{"original.jpg": "jpeg", "generated.png": "png", "garden.webp": "webp"}
	if len(zr.File) != len(want) {
		t.Fatalf("archive has %d files, want %d", len(zr.File), len(want))
	}
	for _, f := range zr.File {
		content, ok := want[f.Name]
		if !ok {
			t.Fatalf("unexpected file %q", f.Name)
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		data, _ := io.ReadAll(rc)
		rc.Close()
		if string(data) != content {
			t.Fatalf("%s = %q, want %q", f.Name, data, content)
		}
	}
}
