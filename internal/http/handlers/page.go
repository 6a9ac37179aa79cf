package handlers

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"visualizer/internal/editor"
	"visualizer/internal/i18n"
	"visualizer/internal/middleware"
)

//go:embed templates/index.html
var templatesFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

// refreshSeconds is how often the page reloads itself while a generation runs.
const refreshSeconds = 2

type pageData struct {
	M          i18n.Messages
	State      editor.Snapshot
	PreviewURL string
	ResultURI  template.URL
	Error      string
	CanSubmit  bool
	Refresh    int
	Locales    []string
}

func (a *App) newPageData(locale string, snap editor.Snapshot) pageData {
	data := pageData{
		M:          i18n.For(locale),
		State:      snap,
		PreviewURL: previewURL(snap),
		// Data URIs are produced from our own base64 payload only.
		ResultURI: template.URL(snap.ResultDataURI()),
		Error:     i18n.ErrorMessage(locale, snap.Err),
		CanSubmit: !snap.IsGenerating && strings.TrimSpace(snap.Prompt) != "",
		Locales:   []string{i18n.LocalePT, i18n.LocaleEN},
	}
	if snap.IsGenerating {
		data.Refresh = refreshSeconds
	}
	return data
}

// Page renders the editor for the caller's session.
func (a *App) Page(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := a.controller(w, r)
	if !ok {
		return
	}
	locale := middleware.LocaleFromContext(r.Context())
	var buf bytes.Buffer
	if err := a.page.Execute(&buf, a.newPageData(locale, ctrl.Snapshot())); err != nil {
		a.Logger.Error().Err(err).Msg("handlers: render page")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (a *App) Upload(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := a.controller(w, r)
	if !ok {
		return
	}
	file, err := a.readUpload(w, r)
	switch {
	case errors.Is(err, errNoUpload):
	case err != nil:
		ctrl.RejectFile(err)
	default:
		_ = ctrl.SelectFile(r.Context(), file)
	}
	backToPage(w, r)
}

func (a *App) Prompt(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := a.controller(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err == nil {
		ctrl.SetPrompt(r.PostForm.Get("prompt"))
	}
	backToPage(w, r)
}

// Generate stores the submitted prompt, if any, and starts a generation.
// Failures are kept on the controller and rendered by the next page view.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := a.controller(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err == nil {
		if values, present := r.PostForm["prompt"]; present && len(values) > 0 {
			ctrl.SetPrompt(values[0])
		}
	}
	if _, err := ctrl.StartGeneration(); err != nil {
		a.Logger.Debug().Err(err).Msg("handlers: generation not started")
	}
	backToPage(w, r)
}

func (a *App) Reset(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := a.controller(w, r)
	if !ok {
		return
	}
	ctrl.Reset()
	backToPage(w, r)
}

func backToPage(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func previewURL(snap editor.Snapshot) string {
	if snap.Preview == "" {
		return ""
	}
	return "/previews/" + snap.Preview
}
