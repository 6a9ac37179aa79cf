package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"visualizer/internal/editor"
	"visualizer/internal/i18n"
	"visualizer/internal/middleware"
)

type stateResponse struct {
	editor.Snapshot
	Locale        string `json:"locale"`
	PreviewURL    string `json:"preview_url,omitempty"`
	ResultDataURI string `json:"result_data_uri,omitempty"`
	ResultURL     string `json:"result_url,omitempty"`
	Error         string `json:"error,omitempty"`
	ErrorCode     string `json:"error_code,omitempty"`
}

type promptRequest struct {
	Prompt *string `json:"prompt"`
}

func newStateResponse(locale string, snap editor.Snapshot) stateResponse {
	res := stateResponse{
		Snapshot:      snap,
		Locale:        locale,
		PreviewURL:    previewURL(snap),
		ResultDataURI: snap.ResultDataURI(),
		Error:         i18n.ErrorMessage(locale, snap.Err),
	}
	if snap.Result != "" {
		res.ResultURL = "/result.png"
	}
	if snap.Err != nil {
		_, res.ErrorCode = failure(snap.Err)
	}
	return res
}

func (a *App) state(w http.ResponseWriter, r *http.Request, code int, snap editor.Snapshot) {
	a.json(w, code, newStateResponse(middleware.LocaleFromContext(r.Context()), snap))
}

// APIState returns the session snapshot. With ?wait=1 it first waits, up to
// WaitTimeout, for the running generation to settle.
func (a *App) APIState(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := a.controller(w, r)
	if !ok {
		return
	}
	if wait := r.URL.Query().Get("wait"); wait == "1" || wait == "true" {
		ctx, cancel := context.WithTimeout(r.Context(), a.WaitTimeout)
		defer cancel()
		snap, err := ctrl.Wait(ctx)
		if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			a.Logger.Warn().Err(err).Msg("handlers: wait for generation")
		}
		a.state(w, r, http.StatusOK, snap)
		return
	}
	a.state(w, r, http.StatusOK, ctrl.Snapshot())
}

func (a *App) APIFile(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := a.controller(w, r)
	if !ok {
		return
	}
	file, err := a.readUpload(w, r)
	if errors.Is(err, errNoUpload) {
		a.error(w, http.StatusBadRequest, "missing_file", "multipart field \"image\" is required")
		return
	}
	if err != nil {
		ctrl.RejectFile(err)
		a.fail(w, r, err)
		return
	}
	if err := ctrl.SelectFile(r.Context(), file); err != nil {
		a.fail(w, r, err)
		return
	}
	a.state(w, r, http.StatusOK, ctrl.Snapshot())
}

func (a *App) APIPrompt(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := a.controller(w, r)
	if !ok {
		return
	}
	var req promptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Prompt == nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	ctrl.SetPrompt(*req.Prompt)
	a.state(w, r, http.StatusOK, ctrl.Snapshot())
}

// APIGenerate accepts an optional {"prompt": "..."} body and starts a
// generation. It answers 202 with the generating snapshot.
func (a *App) APIGenerate(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := a.controller(w, r)
	if !ok {
		return
	}
	var req promptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.Prompt != nil {
		ctrl.SetPrompt(*req.Prompt)
	}
	if _, err := ctrl.StartGeneration(); err != nil {
		a.fail(w, r, err)
		return
	}
	a.state(w, r, http.StatusAccepted, ctrl.Snapshot())
}

func (a *App) APIReset(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := a.controller(w, r)
	if !ok {
		return
	}
	ctrl.Reset()
	a.state(w, r, http.StatusOK, ctrl.Snapshot())
}

// APIPrompts lists the example prompts for the request locale.
func (a *App) APIPrompts(w http.ResponseWriter, r *http.Request) {
	m := i18n.For(middleware.LocaleFromContext(r.Context()))
	a.json(w, http.StatusOK, map[string]any{
		"locale":         m.Locale,
		"default_prompt": m.DefaultPrompt,
		"items":          m.Examples,
	})
}
