package sheets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sacdash/internal/config"
)

func TestApplyReadOptions(t *testing.T) {
	rows := [][]string{
		{"Timestamp", "Item", "Staff Name"},
		{"1/15/2025 14:30:00", "V8 Engine", "Alice"},
		{"1/16/2025 09:00:00", "V6 Engine"},
	}

	t.Run("plain table", func(t *testing.T) {
		table, err := applyReadOptions(rows, ReadOptions{})
		require.NoError(t, err)
		assert.Equal(t, []string{"Timestamp", "Item", "Staff Name"}, table.Headers)
		require.Len(t, table.Rows, 2)
	})

	t.Run("skip rows", func(t *testing.T) {
		decorated := append([][]string{{"banner"}, {""}, {"title"}}, rows...)
		table, err := applyReadOptions(decorated, ReadOptions{SkipRows: 3})
		require.NoError(t, err)
		assert.Equal(t, []string{"Timestamp", "Item", "Staff Name"}, table.Headers)
		assert.Len(t, table.Rows, 2)
	})

	t.Run("not enough rows to skip", func(t *testing.T) {
		_, err := applyReadOptions([][]string{{"banner"}}, ReadOptions{SkipRows: 3})
		assert.Error(t, err)
	})

	t.Run("no header row", func(t *testing.T) {
		_, err := applyReadOptions(nil, ReadOptions{})
		assert.Error(t, err)
	})

	t.Run("column subset", func(t *testing.T) {
		table, err := applyReadOptions(rows, ReadOptions{UseColumns: 2})
		require.NoError(t, err)
		assert.Equal(t, []string{"Timestamp", "Item"}, table.Headers)
		assert.Equal(t, []string{"1/15/2025 14:30:00", "V8 Engine"}, table.Rows[0])
	})

	t.Run("header override replaces source header", func(t *testing.T) {
		table, err := applyReadOptions(rows, ReadOptions{
			Headers: []string{"When", "What"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"When", "What"}, table.Headers)
		// Width follows the override, extra source columns drop.
		assert.Equal(t, []string{"1/15/2025 14:30:00", "V8 Engine"}, table.Rows[0])
	})

	t.Run("ragged rows survive", func(t *testing.T) {
		table, err := applyReadOptions(rows, ReadOptions{})
		require.NoError(t, err)
		assert.Len(t, table.Rows[1], 2)
		assert.Equal(t, "", table.Cell(table.Rows[1], 2))
	})
}

func TestTableColumn(t *testing.T) {
	table := Table{Headers: []string{"Timestamp", "Item"}}
	assert.Equal(t, 1, table.Column("Item"))
	assert.Equal(t, -1, table.Column("Missing"))
}

func csvTestServer(t *testing.T, bodies map[string]string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := bodies[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchAll(t *testing.T) {
	srv := csvTestServer(t, map[string]string{
		"/transactions": "Timestamp,Item,Staff Name\n1/15/2025 14:30:00,V8 Engine,Alice\n",
		"/items":        "\ufeffItems!,Cost!,Price!\nV8 Engine,$200.00,$500.00\n",
		"/staff":        "banner,\n,\nnote,\nName,Discord\nAlice,alice#1,extra\n",
		"/customers":    "Customer\ncarl\n",
		"/logs":         "ts,p,v,s,pr,m\n2025-01-15T00:30:00,carl,Sultan,Turbo,$100.00,bob#2\n",
	})

	cfg := config.SourcesConfig{
		Transactions: config.TableConfig{URL: srv.URL + "/transactions"},
		Items:        config.TableConfig{URL: srv.URL + "/items"},
		Staff:        config.TableConfig{URL: srv.URL + "/staff"},
		Customers:    config.TableConfig{URL: srv.URL + "/customers"},
		Logs:         config.TableConfig{URL: srv.URL + "/logs"},
		FetchTimeout: 5 * time.Second,
	}

	client, err := NewClient(context.Background(), cfg, nil)
	require.NoError(t, err)

	set, err := client.FetchAll(context.Background(), config.PipelineConfig{StaffSkipRows: 3})
	require.NoError(t, err)

	assert.Equal(t, []string{"Timestamp", "Item", "Staff Name"}, set.Transactions.Headers)
	require.Len(t, set.Transactions.Rows, 1)

	// Positional header override wins over the sheet's own header text,
	// and the BOM never leaks into the first header.
	assert.Equal(t, []string{"Item", "Material Cost", "RRP"}, set.Items.Headers)
	assert.Equal(t, "V8 Engine", set.Items.Rows[0][0])

	// Decorative rows skipped, only the first two columns kept.
	assert.Equal(t, []string{"Name", "Discord"}, set.Staff.Headers)
	assert.Equal(t, []string{"Alice", "alice#1"}, set.Staff.Rows[0])

	assert.Equal(t, []string{"Timestamp_Logs", "Player", "Vehicle", "Service", "Price", "Mechanic"}, set.Logs.Headers)
	assert.Equal(t, "Turbo", set.Logs.Rows[0][3])
}

func TestFetchAllFailsOnAnySource(t *testing.T) {
	srv := csvTestServer(t, map[string]string{
		"/transactions": "Timestamp,Item,Staff Name\n",
		"/items":        "a,b,c\n",
		"/staff":        "x,\ny,\nz,\na,b\n",
		"/customers":    "Customer\n",
		// logs path intentionally absent: the server returns 404.
	})

	cfg := config.SourcesConfig{
		Transactions: config.TableConfig{URL: srv.URL + "/transactions"},
		Items:        config.TableConfig{URL: srv.URL + "/items"},
		Staff:        config.TableConfig{URL: srv.URL + "/staff"},
		Customers:    config.TableConfig{URL: srv.URL + "/customers"},
		Logs:         config.TableConfig{URL: srv.URL + "/logs"},
		FetchTimeout: 5 * time.Second,
	}

	client, err := NewClient(context.Background(), cfg, nil)
	require.NoError(t, err)

	_, err = client.FetchAll(context.Background(), config.PipelineConfig{StaffSkipRows: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch logs")
}

func TestResolveURL(t *testing.T) {
	client := &Client{cfg: config.SourcesConfig{SpreadsheetID: "sheet-123"}}

	t.Run("gid export url", func(t *testing.T) {
		got := client.resolveURL(config.TableConfig{GID: "42"})
		assert.Equal(t, "https://docs.google.com/spreadsheets/d/sheet-123/export?format=csv&gid=42", got)
	})

	t.Run("explicit override", func(t *testing.T) {
		got := client.resolveURL(config.TableConfig{GID: "42", URL: "http://localhost/custom.csv"})
		assert.Equal(t, "http://localhost/custom.csv", got)
	})
}
