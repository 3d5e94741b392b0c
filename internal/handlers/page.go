package handlers

import (
	"context"
	"html/template"
	"net/http"
	"os"
	"path/filepath"

	"github.com/bobmcallan/genvest-portal/internal/common"
	"github.com/bobmcallan/genvest-portal/internal/config"
	"github.com/bobmcallan/genvest-portal/internal/form"
	"github.com/bobmcallan/genvest-portal/internal/models"
	"github.com/bobmcallan/genvest-portal/internal/session"
	"github.com/bobmcallan/genvest-portal/internal/viewer"
)

// LoadingRefreshSeconds is how often the loader page reloads itself.
const LoadingRefreshSeconds = 2

// PageController is the page flow the handlers drive.
type PageController interface {
	State(ctx context.Context, sessionID string) (session.State, error)
	Submit(ctx context.Context, sessionID string, creds models.Credentials) error
	Search(ctx context.Context, sessionID, query string) ([]models.TickerSuggestion, bool, error)
	Select(ctx context.Context, sessionID, symbol string) error
	Download(ctx context.Context, sessionID string) ([]byte, error)
}

// PageHandler serves the report page rendered with Go templates.
type PageHandler struct {
	logger     *common.Logger
	templates  *template.Template
	controller PageController
	devMode    bool
}

// NewPageHandler creates a page handler that loads templates from the pages directory.
func NewPageHandler(logger *common.Logger, controller PageController, devMode bool) *PageHandler {
	pagesDir := FindPagesDir()

	templates := template.Must(template.ParseGlob(filepath.Join(pagesDir, "*.html")))
	template.Must(templates.ParseGlob(filepath.Join(pagesDir, "partials", "*.html")))

	return &PageHandler{
		logger:     logger,
		templates:  templates,
		controller: controller,
		devMode:    devMode,
	}
}

// FindPagesDir locates the pages directory.
func FindPagesDir() string {
	dirs := []string{
		"./pages",
		"../pages",
		"../../pages",
		"../../../pages",
	}

	for _, dir := range dirs {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			abs, _ := filepath.Abs(dir)
			return abs
		}
	}

	return "."
}

// pageData is what index.html renders.
type pageData struct {
	Page           string
	DevMode        bool
	CSRFToken      string
	PortalVersion  string
	Ticker         string
	Suggestions    []models.TickerSuggestion
	MinQueryLength int
	DebounceMs     int64
	MaxSuggestions int
	Loading        bool
	LoadingMessage string
	RefreshSeconds int
	Report         *viewer.View
}

// ServeHTTP renders GET /.
func (h *PageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if !RequireMethod(w, r, "GET") {
		return
	}

	id := SessionID(w, r)
	st, err := h.controller.State(r.Context(), id)
	if err != nil {
		h.logger.Error().Str("error", err.Error()).Msg("failed to load session")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	data := pageData{
		Page:           "home",
		DevMode:        h.devMode,
		CSRFToken:      CSRFToken(r),
		PortalVersion:  config.GetVersion(),
		Ticker:         st.Form.Ticker,
		Suggestions:    st.Form.Visible(),
		MinQueryLength: form.MinQueryLength,
		DebounceMs:     form.DebounceDelay.Milliseconds(),
		MaxSuggestions: form.MaxSuggestions,
		Loading:        st.Loading,
		LoadingMessage: st.LoadingMessage,
		RefreshSeconds: LoadingRefreshSeconds,
	}
	if data.Loading && data.LoadingMessage == "" {
		data.LoadingMessage = viewer.DefaultLoaderMessage
	}
	if !st.Loading && st.Report != nil {
		v := viewer.Render(st.Report)
		data.Report = &v
	}

	w.Header().Set("Cache-Control", "no-store")
	if err := h.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		h.logger.Error().Str("template", "index.html").Str("error", err.Error()).Msg("failed to render page")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// StaticFileHandler serves static files (CSS, JS, images).
func (h *PageHandler) StaticFileHandler(w http.ResponseWriter, r *http.Request) {
	staticDir := filepath.Join(FindPagesDir(), "static")

	path := r.URL.Path[len("/static/"):]
	fullPath := filepath.Join(staticDir, path)

	// Prevent directory traversal
	absStaticDir, _ := filepath.Abs(staticDir)
	absFullPath, _ := filepath.Abs(fullPath)
	if len(absFullPath) < len(absStaticDir) || absFullPath[:len(absStaticDir)] != absStaticDir {
		http.NotFound(w, r)
		return
	}

	http.ServeFile(w, r, fullPath)
}
