package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/tally/internal/aggregate"
	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/ledger"
	"github.com/Veraticus/tally/internal/model"
	"github.com/Veraticus/tally/internal/suggest"
)

const dateLayout = "2006-01-02"

// CategoryResponse is the JSON form of a category.
type CategoryResponse struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Icon        string `json:"icon"`
	AccentColor string `json:"accent_color,omitempty"`
	BuiltIn     bool   `json:"built_in"`
}

// CreateCategoryRequest is the body of POST /categories.
type CreateCategoryRequest struct {
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

// TransactionResponse is the JSON form of a transaction.
type TransactionResponse struct {
	ID            string `json:"id"`
	Description   string `json:"description"`
	Amount        string `json:"amount"`
	Date          string `json:"date"`
	CategoryID    string `json:"category_id"`
	CategoryLabel string `json:"category_label"`
	Kind          string `json:"kind"`
	CreatedAt     string `json:"created_at"`
}

// CreateTransactionRequest is the body of POST /transactions. Amount is a
// decimal string; Date is YYYY-MM-DD and defaults to today.
type CreateTransactionRequest struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	CategoryID  string `json:"category_id"`
	Kind        string `json:"kind"`
}

// CategoryTotalResponse is one row of a summary breakdown.
type CategoryTotalResponse struct {
	CategoryID string  `json:"category_id"`
	Label      string  `json:"label"`
	Amount     string  `json:"amount"`
	Share      float64 `json:"share"`
}

// SummaryResponse is the JSON form of one window summary.
type SummaryResponse struct {
	Window     string                  `json:"window"`
	Start      string                  `json:"start"`
	End        string                  `json:"end"`
	Total      string                  `json:"total"`
	Count      int                     `json:"count"`
	Categories []CategoryTotalResponse `json:"categories"`
}

// BalanceResponse is the JSON form of the unwindowed totals.
type BalanceResponse struct {
	Income   string `json:"income"`
	Expenses string `json:"expenses"`
	Balance  string `json:"balance"`
}

// SuggestRequest is the body of POST /suggestions.
type SuggestRequest struct {
	Description string `json:"description"`
	Kind        string `json:"kind"`
}

// SuggestionResponse is the JSON form of a suggestion.
type SuggestionResponse struct {
	CategoryID string  `json:"category_id"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// SuggestResponse wraps an optional suggestion; Suggestion is null when
// there is none.
type SuggestResponse struct {
	Suggestion *SuggestionResponse `json:"suggestion"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error  string              `json:"error"`
	Fields []common.FieldError `json:"fields,omitempty"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	cats := s.categories.List()
	if kind != "" {
		k, err := model.ParseKind(kind)
		if err != nil {
			s.writeError(w, common.NewValidationError("kind", "must be income or expense"))
			return
		}
		cats = s.categories.ForKind(k)
	}

	out := make([]CategoryResponse, 0, len(cats))
	for _, c := range cats {
		out = append(out, categoryResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if !s.decode(w, r, &req) {
		return
	}

	cat, err := s.categories.Register(r.Context(), req.Label, req.Icon)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, categoryResponse(cat))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txns := s.ledger.All()

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			s.writeError(w, common.NewValidationError("limit", "must be a non-negative integer"))
			return
		}
		if limit < len(txns) {
			txns = txns[:limit]
		}
	}

	out := make([]TransactionResponse, 0, len(txns))
	for _, t := range txns {
		out = append(out, s.transactionResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req CreateTransactionRequest
	if !s.decode(w, r, &req) {
		return
	}

	draft, verr := s.draftFrom(req)
	if verr.HasErrors() {
		s.writeError(w, verr)
		return
	}

	txn, err := s.ledger.Append(r.Context(), draft)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.transactionResponse(txn))
}

// draftFrom parses the wire fields the ledger cannot validate itself.
// Anything that parses is left to the ledger's own validation.
func (s *Server) draftFrom(req CreateTransactionRequest) (ledger.Draft, *common.ValidationError) {
	verr := &common.ValidationError{}
	now := s.now()

	draft := ledger.Draft{
		Description: req.Description,
		CategoryID:  strings.TrimSpace(req.CategoryID),
		Kind:        model.Kind(strings.ToLower(strings.TrimSpace(req.Kind))),
		Date:        time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()),
	}
	if draft.Kind == "" {
		draft.Kind = model.KindExpense
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		verr.Add("amount", "must be a decimal number")
	} else {
		draft.Amount = amount
	}

	if raw := strings.TrimSpace(req.Date); raw != "" {
		d, err := time.ParseInLocation(dateLayout, raw, now.Location())
		if err != nil {
			verr.Add("date", "must be formatted as YYYY-MM-DD")
		} else {
			draft.Date = d
		}
	}

	return draft, verr
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	src := aggregate.Transactions(s.ledger.All())
	now := s.now()

	raw := r.URL.Query().Get("window")
	if raw == "" {
		summaries, err := s.engine.SummarizeAll(src, now)
		if err != nil {
			s.writeError(w, err)
			return
		}
		out := make([]SummaryResponse, 0, len(summaries))
		for _, sum := range summaries {
			out = append(out, s.summaryResponse(sum))
		}
		writeJSON(w, http.StatusOK, out)
		return
	}

	window, err := model.ParseWindow(raw)
	if err != nil {
		s.writeError(w, common.NewValidationError("window", "must be daily, weekly or monthly"))
		return
	}
	sum, err := s.engine.Summarize(src, window, now)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.summaryResponse(sum))
}

func (s *Server) handleBalance(w http.ResponseWriter, _ *http.Request) {
	totals := aggregate.Balance(aggregate.Transactions(s.ledger.All()))
	writeJSON(w, http.StatusOK, BalanceResponse{
		Income:   totals.Income.StringFixed(2),
		Expenses: totals.Expenses.StringFixed(2),
		Balance:  totals.Balance.StringFixed(2),
	})
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	var req SuggestRequest
	if !s.decode(w, r, &req) {
		return
	}

	resp := SuggestResponse{}
	kind := model.Kind(strings.ToLower(strings.TrimSpace(req.Kind)))
	if s.suggester == nil || (kind != "" && kind != model.KindExpense) || !suggest.LongEnough(req.Description, s.minLength) {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	if sug, ok := s.suggester.Suggest(r.Context(), req.Description); ok {
		resp.Suggestion = &SuggestionResponse{
			CategoryID: sug.CategoryID,
			Label:      sug.Label,
			Confidence: sug.Confidence,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body: " + err.Error()})
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var verr *common.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: common.ErrValidation.Error(), Fields: verr.Fields})
	case errors.Is(err, common.ErrNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, common.ErrDuplicateEntry):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error()})
	default:
		s.logger.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func categoryResponse(c model.Category) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Label:       c.Label,
		Icon:        c.Icon,
		AccentColor: c.AccentColor,
		BuiltIn:     c.BuiltIn,
	}
}

func (s *Server) transactionResponse(t model.Transaction) TransactionResponse {
	label := t.CategoryID
	if c, ok := s.categories.Resolve(t.CategoryID); ok {
		label = c.Label
	}
	return TransactionResponse{
		ID:            t.ID,
		Description:   t.Description,
		Amount:        t.Amount.StringFixed(2),
		Date:          t.Date.Format(dateLayout),
		CategoryID:    t.CategoryID,
		CategoryLabel: label,
		Kind:          string(t.Kind),
		CreatedAt:     t.CreatedAt.Format(time.RFC3339),
	}
}

func (s *Server) summaryResponse(sum aggregate.Summary) SummaryResponse {
	rows := s.engine.Breakdown(sum)
	cats := make([]CategoryTotalResponse, 0, len(rows))
	for _, row := range rows {
		cats = append(cats, CategoryTotalResponse{
			CategoryID: row.CategoryID,
			Label:      row.Label,
			Amount:     row.Amount.StringFixed(2),
			Share:      row.Share,
		})
	}
	return SummaryResponse{
		Window:     string(sum.Window),
		Start:      sum.Start.Format(time.RFC3339),
		End:        sum.End.Format(time.RFC3339Nano),
		Total:      sum.Total.StringFixed(2),
		Count:      sum.Count,
		Categories: cats,
	}
}
