package handlers

import (
	"encoding/base64"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"

	"visualizer/internal/domain"
	"visualizer/pkg/zip"
)

// Preview streams the session's own preview handle. Keys of other sessions
// are reported as missing.
func (a *App) Preview(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := a.controller(w, r)
	if !ok {
		return
	}
	key := chi.URLParam(r, "key")
	if key == "" || ctrl.Snapshot().Preview != key {
		a.error(w, http.StatusNotFound, "not_found", "preview not found")
		return
	}
	data, mediaType, err := a.Previews.Read(key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "preview not found")
			return
		}
		a.Logger.Error().Err(err).Str("preview", key).Msg("handlers: read preview")
		a.error(w, http.StatusInternalServerError, "internal", "failed to read preview")
		return
	}
	w.Header().Set("Content-Type", mediaType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Result downloads the generated image as PNG.
func (a *App) Result(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := a.controller(w, r)
	if !ok {
		return
	}
	data, ok := a.resultBytes(w, ctrl.Snapshot().Result)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", domain.ResultMediaType)
	w.Header().Set("Content-Disposition", `attachment; filename="visualizer-result.png"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Export bundles the original upload and, when present, the generated image.
func (a *App) Export(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := a.controller(w, r)
	if !ok {
		return
	}
	src, ok := ctrl.Source()
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "no image selected")
		return
	}
	assets := []zip.Asset{{
		Filename: "original" + filepath.Ext(src.Name),
		MIME:     src.MediaType,
		Data:     src.Data,
	}}
	if result := ctrl.Snapshot().Result; result != "" {
		data, ok := a.resultBytes(w, result)
		if !ok {
			return
		}
		assets = append(assets, zip.Asset{Filename: "generated", MIME: domain.ResultMediaType, Data: data})
	}

	archive, err := zip.ArchiveAssets(assets, a.now())
	if err != nil {
		a.Logger.Error().Err(err).Msg("handlers: build export archive")
		a.error(w, http.StatusInternalServerError, "internal", "failed to build archive")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="visualizer.zip"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(archive)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

func (a *App) resultBytes(w http.ResponseWriter, payload string) ([]byte, bool) {
	if payload == "" {
		a.error(w, http.StatusNotFound, "not_found", "no generated image")
		return nil, false
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		a.Logger.Error().Err(err).Msg("handlers: decode result")
		a.error(w, http.StatusInternalServerError, "internal", "generated image is not valid base64")
		return nil, false
	}
	return data, true
}
