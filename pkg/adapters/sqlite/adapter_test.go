package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/leapdq/pkg/adapter"
	"github.com/leapstack-labs/leapdq/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connect(t *testing.T, path string) *Adapter {
	t.Helper()
	adp := New(nil)
	require.NoError(t, adp.Connect(context.Background(), core.AdapterConfig{Path: path}))
	t.Cleanup(func() { _ = adp.Close() })
	return adp
}

func seed(t *testing.T, adp *Adapter) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, adp.Exec(ctx, `
		CREATE TABLE facilities (
			facility_id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			beds REAL
		)
	`))
	require.NoError(t, adp.Exec(ctx, `
		INSERT INTO facilities VALUES
			(1, 'North Clinic', 12.5),
			(2, 'South Clinic', NULL)
	`))
}

func TestAdapter_ReadTable(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"in-memory", func(*testing.T) string { return ":memory:" }},
		{"file-based", func(t *testing.T) string { return filepath.Join(t.TempDir(), "dq.db") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adp := connect(t, tt.path(t))
			seed(t, adp)

			got, err := adp.ReadTable(context.Background(), "facilities")
			require.NoError(t, err)
			assert.Equal(t, 2, got.Len())
			assert.Equal(t, []string{"facility_id", "name", "beds"}, got.Names())
			assert.Equal(t, int64(1), got.Value(0, "facility_id"))
			assert.Equal(t, "North Clinic", got.Value(0, "name"))
			assert.Nil(t, got.Value(1, "beds"))
		})
	}
}

func TestAdapter_QueryTable_Args(t *testing.T) {
	adp := connect(t, ":memory:")
	seed(t, adp)

	got, err := adp.QueryTable(context.Background(), "SELECT name FROM facilities WHERE facility_id = ?", 2)
	require.NoError(t, err)
	require.Equal(t, 1, got.Len())
	assert.Equal(t, "South Clinic", got.Value(0, "name"))
}

func TestAdapter_GetTableMetadata(t *testing.T) {
	adp := connect(t, ":memory:")
	seed(t, adp)

	tests := []struct {
		name    string
		table   string
		wantErr bool
	}{
		{"unqualified", "facilities", false},
		{"qualified", "main.facilities", false},
		{"missing", "nope", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, err := adp.GetTableMetadata(context.Background(), tt.table)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "main", meta.Schema)
			assert.Equal(t, "facilities", meta.Name)
			assert.Equal(t, int64(2), meta.RowCount)
			assert.Equal(t, []string{"facility_id", "name", "beds"}, meta.ColumnNames())
			assert.True(t, meta.Columns[0].PrimaryKey)
			assert.False(t, meta.Columns[1].Nullable)
			assert.Equal(t, "REAL", meta.Columns[2].Type)
		})
	}
}

func TestAdapter_NotConnected(t *testing.T) {
	adp := New(nil)
	_, err := adp.GetTableMetadata(context.Background(), "facilities")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not established")
	assert.NoError(t, adp.Close())
}

func TestAdapter_Registry(t *testing.T) {
	adp, err := adapter.NewAdapter(core.AdapterConfig{Type: "sqlite"}, nil)
	require.NoError(t, err)
	_, ok := adp.(*Adapter)
	assert.True(t, ok)
}
