package tinybird

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const queryResultJSON = `{
	"meta": [{"name": "action", "type": "String"}, {"name": "total", "type": "UInt64"}],
	"data": [{"action": "click", "total": 10}, {"action": "view", "total": 4}],
	"rows": 2,
	"rows_before_limit_at_least": 2,
	"statistics": {"elapsed": 0.0012, "rows_read": 14, "bytes_read": 280}
}`

func TestFormatQuery(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want string
	}{
		{"appends format", "SELECT 1", "SELECT 1 FORMAT JSON"},
		{"trims semicolons", "  SELECT 1;; ", "SELECT 1 FORMAT JSON"},
		{"keeps explicit format", "SELECT 1 FORMAT CSV", "SELECT 1 FORMAT CSV"},
		{"case insensitive", "select 1 format csv", "select 1 format csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := formatQuery(tt.sql, QueryFormatJSON)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := formatQuery(" ; ", QueryFormatJSON)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestQuery_SQL(t *testing.T) {
	client, server := newTestClient(t, jsonHandler(200, queryResultJSON))

	result, err := client.Query.SQL(context.Background(), "SELECT action, count() total FROM events GROUP BY action",
		&QueryParams{OutputFormatJSONQuote64bitIntegers: Int(0)}, map[string]any{"limit": 5})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Rows)
	assert.Equal(t, []string{"action", "total"}, result.ColumnNames())
	assert.Equal(t, "click", result.Data[0]["action"])
	assert.Equal(t, int64(14), result.Statistics.RowsRead)
	assert.False(t, result.Empty())
	assert.JSONEq(t, queryResultJSON, string(result.RawJSON()))

	req := server.last(t)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/v0/sql", req.Path)
	assert.True(t, strings.HasPrefix(req.Query, "q="), "q must come first, got %s", req.Query)
	assert.NotContains(t, req.Query, "+", "spaces are percent-encoded")

	values, err := url.ParseQuery(req.Query)
	require.NoError(t, err)
	assert.Equal(t, "SELECT action, count() total FROM events GROUP BY action FORMAT JSON", values.Get("q"))
	assert.Equal(t, "0", values.Get("output_format_json_quote_64bit_integers"))
	assert.Equal(t, "5", values.Get("limit"))
}

func TestQuery_SQLRejectsLongGet(t *testing.T) {
	client, server := newTestClient(t, jsonHandler(200, queryResultJSON))

	long := "SELECT '" + strings.Repeat("x", LimitSQLLengthBytes) + "'"
	_, err := client.Query.SQL(context.Background(), long, nil, nil)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "query", vErr.Field)
	assert.Equal(t, 0, server.count())
}

func TestQuery_SQLPost(t *testing.T) {
	client, server := newTestClient(t, jsonHandler(200, queryResultJSON))

	_, err := client.Query.SQLPost(context.Background(),
		"% SELECT * FROM events WHERE action = {{String(action)}}",
		map[string]any{"action": "click"}, nil)
	require.NoError(t, err)

	req := server.last(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/v0/sql", req.Path)
	assert.Equal(t, ContentTypeJSON, req.Header.Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(req.Body), &body))
	assert.Equal(t, "% SELECT * FROM events WHERE action = {{String(action)}} FORMAT JSON", body["q"])
	assert.Equal(t, "click", body["action"])
}

func TestQuery_SQLPipeline(t *testing.T) {
	client, server := newTestClient(t, jsonHandler(200, queryResultJSON))

	_, err := client.Query.SQLPipeline(context.Background(), "SELECT * FROM _", "top_actions", nil)
	require.NoError(t, err)

	values, err := url.ParseQuery(server.last(t).Query)
	require.NoError(t, err)
	assert.Equal(t, "top_actions", values.Get("pipeline"))

	_, err = client.Query.SQLPipeline(context.Background(), "SELECT * FROM _", "", nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestQuery_Export(t *testing.T) {
	csv := "\"click\",10\n\"view\",4\n"
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(csv))
	})

	data, err := client.Query.Export(context.Background(), "SELECT action, total FROM top", QueryFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, csv, string(data))

	req := server.last(t)
	assert.Equal(t, "*/*", req.Header.Get("Accept"))
	values, _ := url.ParseQuery(req.Query)
	assert.Equal(t, "SELECT action, total FROM top FORMAT CSV", values.Get("q"))
}

func TestQuery_SQLBatch(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Query().Get("q"), "missing") {
			jsonHandler(400, `{"error":"Unknown table missing"}`)(w, r)
			return
		}
		jsonHandler(200, queryResultJSON)(w, r)
	}, WithBatchConcurrency(2))

	results, err := client.Query.SQLBatch(context.Background(), map[string]string{
		"ok":     "SELECT * FROM events",
		"broken": "SELECT * FROM missing",
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.True(t, results["ok"].OK())
	assert.Equal(t, 2, results["ok"].Value.Rows)

	var apiErr *APIError
	require.True(t, errors.As(results["broken"].Err, &apiErr))
	assert.Equal(t, 400, apiErr.StatusCode)
	assert.Equal(t, "Unknown table missing", apiErr.Message)
}

func TestDecodeRows(t *testing.T) {
	result, err := decodeQueryResult(json.RawMessage(queryResultJSON))
	require.NoError(t, err)

	type row struct {
		Action string `json:"action"`
		Total  int    `json:"total"`
	}
	rows, err := DecodeRows[row](result)
	require.NoError(t, err)
	assert.Equal(t, []row{{"click", 10}, {"view", 4}}, rows)
}

func TestDecodeRows_Empty(t *testing.T) {
	result, err := decodeQueryResult(json.RawMessage(`{"meta":[],"rows":0}`))
	require.NoError(t, err)

	rows, err := DecodeRows[map[string]any](result)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.NotNil(t, rows)
	assert.True(t, result.Empty())
}
