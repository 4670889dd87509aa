package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"finledger/internal/analytics"
	"finledger/internal/core"
	"finledger/internal/export"
	"finledger/internal/ledger"
	"finledger/internal/log"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeMutationResult maps ledger mutation errors: a write-through failure
// still carries the mutated state, so it reports 200 with a warning flag
// rather than a 5xx.
func (s *Server) writeMutationResult(w http.ResponseWriter, r *http.Request, err error, body map[string]any) {
	if err != nil && !errors.Is(err, ledger.ErrPersist) {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if body == nil {
		body = map[string]any{}
	}
	if errors.Is(err, ledger.ErrPersist) {
		s.log.WarnContext(r.Context(), "Mutation applied but not persisted", log.FieldError, err)
		body["persisted"] = false
	} else {
		body["persisted"] = true
	}
	writeJSON(w, http.StatusOK, body)
}

type transactionsResponse struct {
	Transactions []core.Transaction `json:"transactions"`
	Filter       analytics.Filter   `json:"filter"`
	Count        int                `json:"count"`
	TotalCount   int                `json:"totalCount"`
}

// handleListTransactions returns the filtered view. Query parameters patch
// the shared filter state first, mirroring the filter controls of the UI.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var patch ledger.FilterPatch
	if q.Has("type") {
		v := q.Get("type")
		patch.Type = &v
	}
	if q.Has("category") {
		v := q.Get("category")
		patch.Category = &v
	}
	if q.Has("search") {
		v := q.Get("search")
		patch.Search = &v
	}
	if patch.Type != nil || patch.Category != nil || patch.Search != nil {
		s.store.SetFilter(patch)
	}

	txs := s.store.Filtered()
	writeJSON(w, http.StatusOK, transactionsResponse{
		Transactions: txs,
		Filter:       s.store.Filter(),
		Count:        len(txs),
		TotalCount:   s.store.Count(),
	})
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var payload core.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	tx, err := s.store.Add(r.Context(), payload)
	var fieldErrs core.FieldErrors
	if errors.As(err, &fieldErrs) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": fieldErrs})
		return
	}
	s.writeMutationResult(w, r, err, map[string]any{"transaction": tx})
}

func (s *Server) handleRemoveTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.store.Remove(r.Context(), id)
	s.writeMutationResult(w, r, err, map[string]any{"count": s.store.Count()})
}

func (s *Server) handleClearTransactions(w http.ResponseWriter, r *http.Request) {
	err := s.store.Clear(r.Context())
	s.writeMutationResult(w, r, err, nil)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	records, err := export.ReadJSON(r.Body)
	if err != nil {
		if errors.Is(err, export.ErrNotArray) {
			writeError(w, http.StatusBadRequest, "import payload must be a JSON array")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = s.store.Import(r.Context(), records)
	if errors.Is(err, ledger.ErrDuplicateID) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeMutationResult(w, r, err, map[string]any{"count": s.store.Count()})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	txs := s.store.Transactions()
	scope := "all"
	if r.URL.Query().Get("filtered") == "true" {
		txs = s.store.Filtered()
		scope = "filtered"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"scope":   scope,
		"summary": analytics.ComputeSummary(txs),
	})
}

// cachedAnalytics serves the marshaled response from the LRU cache; compute
// runs only on a miss. Any ledger mutation clears the cache.
func (s *Server) cachedAnalytics(w http.ResponseWriter, r *http.Request, key string, compute func() any) {
	if data, ok := s.analyticsCache.Get(key); ok {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(compute()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.analyticsCache.Set(key, buf.Bytes())

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleCategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	s.cachedAnalytics(w, r, "categories", func() any {
		breakdown := analytics.CategoryBreakdown(s.store.Filtered())
		if breakdown == nil {
			breakdown = []analytics.CategoryAnalysis{}
		}
		return breakdown
	})
}

func (s *Server) handleMonthlyTrends(w http.ResponseWriter, r *http.Request) {
	s.cachedAnalytics(w, r, "monthly", func() any {
		trends := analytics.MonthlyTrends(s.store.Transactions())
		if trends == nil {
			trends = []analytics.MonthlyTrend{}
		}
		return trends
	})
}

func (s *Server) handlePeriodStats(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	switch period {
	case analytics.PeriodWeek, analytics.PeriodYear:
	default:
		period = analytics.PeriodMonth
	}
	s.cachedAnalytics(w, r, "period:"+period, func() any {
		return analytics.StatsByPeriod(s.store.Transactions(), period, core.DateOf(s.now()))
	})
}

func (s *Server) handleUniqueCategories(w http.ResponseWriter, r *http.Request) {
	cats := analytics.UniqueCategories(s.store.Transactions())
	if cats == nil {
		cats = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": cats})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	all := core.Currencies()
	codes := make([]string, 0, len(all))
	for code := range all {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	available := make([]core.CurrencyConfig, 0, len(codes))
	for _, code := range codes {
		available = append(available, all[code])
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"currency":   core.CurrencyFor(s.store.Currency()),
		"currencies": available,
		"suggestedCategories": map[string][]core.Category{
			"income":  core.SuggestedCategories(core.Income),
			"expense": core.SuggestedCategories(core.Expense),
		},
	})
}

func (s *Server) handleSetCurrency(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Currency string `json:"currency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	err := s.store.SetCurrency(r.Context(), body.Currency)
	if err != nil && !errors.Is(err, ledger.ErrPersist) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeMutationResult(w, r, err, map[string]any{"currency": s.store.Currency()})
}

func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.JSONFilename(s.now())+`"`)
	if err := export.WriteJSON(w, s.store.Transactions()); err != nil {
		s.log.ErrorContext(r.Context(), "JSON export failed", log.FieldError, err)
	}
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.CSVFilename(s.now())+`"`)
	if err := export.WriteCSV(w, s.store.Transactions()); err != nil {
		s.log.ErrorContext(r.Context(), "CSV export failed", log.FieldError, err)
	}
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	txs := s.store.Transactions()
	summary := analytics.ComputeSummary(txs)

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.XLSXFilename(s.now())+`"`)
	if err := export.WriteXLSX(w, txs, summary, s.store.Currency()); err != nil {
		s.log.ErrorContext(r.Context(), "XLSX export failed", log.FieldError, err)
	}
}

func (s *Server) handleAlert(w http.ResponseWriter, r *http.Request) {
	alert, ok := s.store.Alert()
	if !ok {
		writeJSON(w, http.StatusOK, ledger.Alert{})
		return
	}
	writeJSON(w, http.StatusOK, alert)
}
