package sheets

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

type recordedCall struct {
	method string
	path   string
	body   string
}

// fakeSheetsAPI serves just enough of the Sheets REST surface for Export.
type fakeSheetsAPI struct {
	calls      []recordedCall
	existing   string
	mu         sync.Mutex
	failWrites bool
}

func (f *fakeSheetsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.calls = append(f.calls, recordedCall{method: r.Method, path: r.URL.Path, body: string(body)})
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet:
		_, _ = io.WriteString(w, f.existing)
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/v4/spreadsheets"):
		_, _ = io.WriteString(w, `{"spreadsheetId":"new-id","spreadsheetUrl":"https://example.test/new-id","sheets":[{"properties":{"sheetId":1,"title":"Transactions"}},{"properties":{"sheetId":2,"title":"Summary"}}]}`)
	case strings.HasSuffix(r.URL.Path, ":batchUpdate"):
		_, _ = io.WriteString(w, `{"spreadsheetId":"sheet-1","replies":[{"addSheet":{"properties":{"sheetId":7,"title":"Summary"}}}]}`)
	case r.Method == http.MethodPut && f.failWrites:
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"error":{"code":403,"message":"forbidden"}}`)
	default:
		_, _ = io.WriteString(w, `{}`)
	}
}

func (f *fakeSheetsAPI) matching(method, fragment string) []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recordedCall
	for _, c := range f.calls {
		if c.method == method && strings.Contains(c.path, fragment) {
			out = append(out, c)
		}
	}
	return out
}

func newTestWriter(t *testing.T, api *fakeSheetsAPI, cfg Config) *Writer {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	svc, err := sheets.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	return NewWriterWithService(svc, cfg, nil)
}

func sampleReport() Report {
	return Report{
		Transactions: [][]any{
			{"Date", "Description", "Category", "Kind", "Amount"},
			{"2025-03-12", "Paycheck", "Salary", "income", "3000.00"},
			{"2025-03-11", "Coffee", "Food", "expense", "4.50"},
		},
		Summary: [][]any{{"Tally Summary"}, {"Balance", "2995.50"}},
	}
}

func TestWriter_ExportToExistingSpreadsheet(t *testing.T) {
	api := &fakeSheetsAPI{
		existing: `{"spreadsheetId":"sheet-1","sheets":[{"properties":{"sheetId":0,"title":"Transactions"}}]}`,
	}
	cfg := DefaultConfig()
	cfg.SpreadsheetID = "sheet-1"
	cfg.BatchSize = 2
	cfg.RetryAttempts = 1

	id, err := newTestWriter(t, api, cfg).Export(context.Background(), sampleReport())
	require.NoError(t, err)
	assert.Equal(t, "sheet-1", id)

	// The missing Summary tab is added before anything is written.
	updates := api.matching(http.MethodPost, ":batchUpdate")
	require.Len(t, updates, 2, "add sheet plus formatting")
	assert.Contains(t, updates[0].body, `"addSheet"`)
	assert.Contains(t, updates[1].body, `"frozenRowCount":1`)
	assert.Contains(t, updates[1].body, `"sheetId":7`)

	assert.Len(t, api.matching(http.MethodPost, ":clear"), 2)

	writes := api.matching(http.MethodPut, "/values/")
	require.Len(t, writes, 3, "two transaction batches and one summary batch")
	assert.True(t, strings.HasSuffix(writes[0].path, "Transactions!A1"), writes[0].path)
	assert.True(t, strings.HasSuffix(writes[1].path, "Transactions!A3"), writes[1].path)
	assert.True(t, strings.HasSuffix(writes[2].path, "Summary!A1"), writes[2].path)

	var first sheets.ValueRange
	require.NoError(t, json.Unmarshal([]byte(writes[0].body), &first))
	require.Len(t, first.Values, 2)
	assert.Equal(t, "Description", first.Values[0][1])
	assert.Equal(t, "3000.00", first.Values[1][4])
}

func TestWriter_ExportCreatesSpreadsheet(t *testing.T) {
	api := &fakeSheetsAPI{}
	cfg := DefaultConfig()
	cfg.EnableFormatting = false
	cfg.RetryAttempts = 1

	id, err := newTestWriter(t, api, cfg).Export(context.Background(), sampleReport())
	require.NoError(t, err)
	assert.Equal(t, "new-id", id)

	creates := api.matching(http.MethodPost, "/v4/spreadsheets")
	require.NotEmpty(t, creates)
	assert.Contains(t, creates[0].body, `"title":"Tally"`)
	assert.Empty(t, api.matching(http.MethodPost, ":batchUpdate"))
	assert.Len(t, api.matching(http.MethodPut, "/values/"), 2)
}

func TestWriter_ExportWriteFailure(t *testing.T) {
	api := &fakeSheetsAPI{
		existing:   `{"spreadsheetId":"sheet-1","sheets":[{"properties":{"sheetId":0,"title":"Transactions"}},{"properties":{"sheetId":3,"title":"Summary"}}]}`,
		failWrites: true,
	}
	cfg := DefaultConfig()
	cfg.SpreadsheetID = "sheet-1"
	cfg.RetryAttempts = 1

	_, err := newTestWriter(t, api, cfg).Export(context.Background(), sampleReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Transactions")
	assert.Empty(t, api.matching(http.MethodPost, ":batchUpdate"), "no formatting after a failed write")
}
