// Package reports exposes the ledger over a JSON HTTP API for administrators.
package reports

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/wolfman30/spa-ledger/internal/catalog"
	"github.com/wolfman30/spa-ledger/internal/ledger"
	"github.com/wolfman30/spa-ledger/internal/period"
	"github.com/wolfman30/spa-ledger/internal/records"
	"github.com/wolfman30/spa-ledger/internal/report"
	"github.com/wolfman30/spa-ledger/internal/store"
	"github.com/wolfman30/spa-ledger/pkg/logging"
)

// Ledger is the ledger surface the API serves.
type Ledger interface {
	Now() time.Time
	Register(ctx context.Context, reg ledger.Registration) (records.Record, error)
	Summarize(ctx context.Context, mode period.Mode, input string) (ledger.Summary, error)
	Candidates(ctx context.Context, date time.Time) ([]records.Record, error)
	Delete(ctx context.Context, expected records.Record) error
	Analytics(ctx context.Context, kind report.Kind) (ledger.Analytics, error)
}

// Handler provides the reporting endpoints.
type Handler struct {
	ledger Ledger
	logger *logging.Logger
}

func NewHandler(l Ledger, logger *logging.Logger) *Handler {
	if l == nil {
		panic("reports: ledger required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{ledger: l, logger: logger}
}

// Routes returns a chi router with the reporting routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/procedures", h.ListProcedures)
	r.Get("/periods/{mode}", h.GetPeriod)
	r.Get("/summary/{mode}", h.GetSummary)
	r.Get("/analytics/{kind}", h.GetAnalytics)
	r.Get("/records", h.ListRecords)
	r.Post("/records", h.CreateRecord)
	r.Delete("/records/{position}", h.DeleteRecord)
	return r
}

// RecordPayload is the wire form of an appointment. Dates use DD/MM/YYYY.
// Records returned by the API can be sent back unchanged as the expected
// record of a delete.
type RecordPayload struct {
	Date       string          `json:"date"`
	Patient    string          `json:"patient"`
	Procedures []string        `json:"procedures"`
	Price      decimal.Decimal `json:"price"`
	Position   int             `json:"position,omitempty"`
}

func payloadOf(rec records.Record) RecordPayload {
	return RecordPayload{
		Date:       rec.DateString(),
		Patient:    rec.Patient,
		Procedures: rec.Procedures,
		Price:      rec.Price,
		Position:   rec.Position,
	}
}

// ListProcedures returns the procedure catalog and the allowed prices.
func (h *Handler) ListProcedures(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"procedures": catalog.All(),
		"prices":     catalog.AllowedPrices,
	})
}

// GetPeriod resolves a period without touching the store.
// GET /api/periods/{mode}?input=
func (h *Handler) GetPeriod(w http.ResponseWriter, r *http.Request) {
	mode, err := period.ParseMode(chi.URLParam(r, "mode"))
	if err != nil {
		h.writeError(w, "resolve period", err)
		return
	}
	p, err := period.Resolve(mode, r.URL.Query().Get("input"), h.ledger.Now())
	if err != nil {
		h.writeError(w, "resolve period", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// GetSummary aggregates the records of a period.
// GET /api/summary/{mode}?input=
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	mode, err := period.ParseMode(chi.URLParam(r, "mode"))
	if err != nil {
		h.writeError(w, "summarize", err)
		return
	}
	out, err := h.ledger.Summarize(r.Context(), mode, r.URL.Query().Get("input"))
	if err != nil {
		h.writeError(w, "summarize", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// GetAnalytics builds one billing-month report.
// GET /api/analytics/{kind}
func (h *Handler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	kind := report.Kind(strings.ToLower(chi.URLParam(r, "kind")))
	out, err := h.ledger.Analytics(r.Context(), kind)
	if err != nil {
		h.writeError(w, "analytics", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"kind":   kind,
		"empty":  out.Empty(),
		"report": out,
	})
}

// ListRecords returns the records of one day with their store positions.
// GET /api/records?date=DD/MM/YYYY (defaults to today)
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	date := records.Day(h.ledger.Now())
	if raw := strings.TrimSpace(r.URL.Query().Get("date")); raw != "" {
		parsed, err := records.ParseDate(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be DD/MM/YYYY"})
			return
		}
		date = parsed
	}
	recs, err := h.ledger.Candidates(r.Context(), date)
	if err != nil {
		h.writeError(w, "list records", err)
		return
	}
	out := make([]RecordPayload, 0, len(recs))
	for _, rec := range recs {
		out = append(out, payloadOf(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"date":    date.Format(records.DateLayout),
		"records": out,
	})
}

// CreateRecord registers an appointment.
// POST /api/records
func (h *Handler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	var req RecordPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	reg := ledger.Registration{Patient: req.Patient, Procedures: req.Procedures, Price: req.Price}
	if strings.TrimSpace(req.Date) != "" {
		date, err := records.ParseDate(req.Date)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be DD/MM/YYYY"})
			return
		}
		reg.Date = date
	}
	rec, err := h.ledger.Register(r.Context(), reg)
	if err != nil {
		h.writeError(w, "register", err)
		return
	}
	writeJSON(w, http.StatusCreated, payloadOf(rec))
}

// DeleteRecord deletes the record at position if it still matches the body.
// The position in the path wins over any position in the body.
// DELETE /api/records/{position}
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	position, err := strconv.Atoi(chi.URLParam(r, "position"))
	if err != nil || position < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "position must be a positive integer"})
		return
	}
	var req RecordPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "expected record required"})
		return
	}
	date, err := records.ParseDate(req.Date)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be DD/MM/YYYY"})
		return
	}
	expected := records.Record{
		Date:       date,
		Patient:    req.Patient,
		Procedures: records.DecodeProcedures(strings.Join(req.Procedures, ",")),
		Price:      req.Price,
		Position:   position,
	}
	if err := h.ledger.Delete(r.Context(), expected); err != nil {
		h.writeError(w, "delete record", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, period.ErrInvalidInput), errors.Is(err, ledger.ErrInvalidRegistration):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound), errors.Is(err, report.ErrNoData):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("reports: request failed", "op", op, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
