package domain

import (
	"encoding/base64"
	"strings"
)

// ResultMediaType is the media type used when rendering generated images.
const ResultMediaType = "image/png"

// ImageAsset is a user supplied source image. It only lives in memory for the
// duration of an editing session.
type ImageAsset struct {
	Name      string
	MediaType string
	Data      []byte
}

// IsImage reports whether the declared media type is an image type.
func (a ImageAsset) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(a.MediaType)), "image/")
}

// Base64 returns the standard base64 encoding of the asset bytes.
func (a ImageAsset) Base64() string {
	return base64.StdEncoding.EncodeToString(a.Data)
}

// DataURI renders a base64 image payload the way the page displays it.
func DataURI(payload string) string {
	if payload == "" {
		return ""
	}
	return "data:" + ResultMediaType + ";base64," + payload
}
