package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/bobmcallan/genvest-portal/internal/common"
	"github.com/bobmcallan/genvest-portal/internal/controller"
	"github.com/bobmcallan/genvest-portal/internal/form"
	"github.com/bobmcallan/genvest-portal/internal/models"
)

// PDFFilename is the attachment name of a downloaded report.
const PDFFilename = "genvest_report.pdf"

// ReportHandler handles report submission, PDF download and ticker
// suggestions.
type ReportHandler struct {
	logger     *common.Logger
	controller PageController
}

// NewReportHandler creates a new report handler.
func NewReportHandler(logger *common.Logger, controller PageController) *ReportHandler {
	return &ReportHandler{logger: logger, controller: controller}
}

// HandleSubmit handles POST /report. It always returns to the page, which
// shows the loader while the report is generated.
func (h *ReportHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	creds := models.Credentials{
		Ticker:    strings.TrimSpace(r.FormValue("ticker")),
		OpenAIKey: strings.TrimSpace(r.FormValue("openai_key")),
		SerperKey: strings.TrimSpace(r.FormValue("serper_key")),
	}

	err := h.controller.Submit(r.Context(), SessionID(w, r), creds)
	switch {
	case err == nil:
	case errors.Is(err, form.ErrIncomplete):
		h.logger.Debug().Msg("Ignoring incomplete report submission")
	case errors.Is(err, controller.ErrInFlight):
		h.logger.Debug().Msg("Ignoring submission while a report is generating")
	default:
		h.logger.Error().Err(err).Msg("Failed to start report generation")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleDownload handles POST /report/download.
func (h *ReportHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	pdf, err := h.controller.Download(r.Context(), SessionID(w, r))
	switch {
	case errors.Is(err, controller.ErrNoReport):
		WriteError(w, http.StatusNotFound, "No report to download")
		return
	case err != nil:
		WriteError(w, http.StatusBadGateway, "Failed to download PDF")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+PDFFilename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

// HandleSuggestion handles POST /report/suggestion, the form fallback for
// picking a suggestion.
func (h *ReportHandler) HandleSuggestion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	symbol := strings.TrimSpace(r.FormValue("symbol"))
	if symbol != "" {
		if err := h.controller.Select(r.Context(), SessionID(w, r), symbol); err != nil {
			h.logger.Error().Err(err).Msg("Failed to select suggestion")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type searchResponse struct {
	Suggestions []models.TickerSuggestion `json:"suggestions"`
	Stale       bool                      `json:"stale"`
}

// HandleSearch handles GET /api/search?q=. Stale marks results for input
// that has since been superseded; the page ignores them.
func (h *ReportHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	suggestions, stale, err := h.controller.Search(r.Context(), SessionID(w, r), r.URL.Query().Get("q"))
	if err != nil {
		h.logger.Error().Err(err).Msg("Ticker search failed")
		WriteError(w, http.StatusInternalServerError, "search failed")
		return
	}

	WriteJSON(w, http.StatusOK, searchResponse{Suggestions: suggestions, Stale: stale})
}

// HandleSelect handles POST /api/suggestions/select with {"symbol": "..."}.
func (h *ReportHandler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var body struct {
		Symbol string `json:"symbol"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	symbol := strings.TrimSpace(body.Symbol)
	if symbol == "" {
		WriteError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	if err := h.controller.Select(r.Context(), SessionID(w, r), symbol); err != nil {
		h.logger.Error().Err(err).Msg("Failed to select suggestion")
		WriteError(w, http.StatusInternalServerError, "select failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "ticker": symbol})
}
