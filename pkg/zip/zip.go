// Package zip bundles in-memory images into a single archive.
package zip

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
	"time"
)

// Asset is one file of the archive.
type Asset struct {
	Filename string
	MIME     string
	Data     []byte
}

var extensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/gif":  ".gif",
	"image/heic": ".heic",
}

// ArchiveAssets writes assets into a zip archive. Filenames without an
// extension get one derived from the MIME type; empty assets are skipped.
func ArchiveAssets(assets []Asset, modified time.Time) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, asset := range assets {
		if len(asset.Data) == 0 {
			continue
		}
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     filename(asset),
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return nil, fmt.Errorf("zip: create %s: %w", asset.Filename, err)
		}
		if _, err := w.Write(asset.Data); err != nil {
			return nil, fmt.Errorf("zip: write %s: %w", asset.Filename, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: close: %w", err)
	}
	return buf.Bytes(), nil
}

func filename(asset Asset) string {
	name := strings.TrimSpace(asset.Filename)
	if name == "" {
		name = "image"
	}
	if strings.Contains(name, ".") {
		return name
	}
	if ext, ok := extensions[strings.ToLower(asset.MIME)]; ok {
		return name + ext
	}
	return name
}
