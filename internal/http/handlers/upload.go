package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"visualizer/internal/domain"
)

const (
	uploadField = "image"
	// multipartSlack covers boundaries and part headers around the file.
	multipartSlack = 1 << 20
)

// errNoUpload means the form carried no file; like an empty file picker it
// changes nothing.
var errNoUpload = errors.New("no file in upload")

// readUpload extracts the image part of a multipart request. The media type
// comes from the part header, falling back to content sniffing when the
// browser sent none.
func (a *App) readUpload(w http.ResponseWriter, r *http.Request) (domain.ImageAsset, error) {
	limit := a.MaxUploadBytes
	memory := int64(32 << 20)
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit+multipartSlack)
		memory = limit
	}
	if err := r.ParseMultipartForm(memory); err != nil {
		if tooLarge(err) {
			return domain.ImageAsset{}, domain.ErrUploadTooLarge
		}
		return domain.ImageAsset{}, fmt.Errorf("%w: %v", domain.ErrInvalidImageFile, err)
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return domain.ImageAsset{}, errNoUpload
		}
		return domain.ImageAsset{}, fmt.Errorf("%w: %v", domain.ErrInvalidImageFile, err)
	}
	defer file.Close()

	if limit > 0 && header.Size > limit {
		return domain.ImageAsset{}, domain.ErrUploadTooLarge
	}
	data, err := io.ReadAll(file)
	if err != nil {
		if tooLarge(err) {
			return domain.ImageAsset{}, domain.ErrUploadTooLarge
		}
		return domain.ImageAsset{}, fmt.Errorf("read upload: %w", err)
	}

	return domain.ImageAsset{
		Name:      filepath.Base(header.Filename),
		MediaType: mediaTypeOf(header.Header.Get("Content-Type"), data),
		Data:      data,
	}, nil
}

func mediaTypeOf(declared string, data []byte) string {
	if mt, _, err := mime.ParseMediaType(declared); err == nil && mt != "application/octet-stream" {
		return strings.ToLower(mt)
	}
	if len(data) == 0 {
		return ""
	}
	mt, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	return mt
}

func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large")
}
