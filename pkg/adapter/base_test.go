package adapter

import (
	"context"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseSQLAdapter_Disconnected(t *testing.T) {
	ctx := context.Background()
	base := &BaseSQLAdapter{}

	assert.False(t, base.IsConnected())
	assert.NoError(t, base.Close())
	assert.ErrorContains(t, base.Exec(ctx, "SELECT 1"), "database connection not established")
	_, err := base.Query(ctx, "SELECT 1")
	assert.ErrorContains(t, err, "database connection not established")
	_, err = base.GetTableMetadataCommon(ctx, "visits")
	assert.ErrorContains(t, err, "database connection not established")
}

func TestBaseSQLAdapter_Statements(t *testing.T) {
	tests := []struct {
		name    string
		expect  func(mock sqlmock.Sqlmock)
		run     func(ctx context.Context, b *BaseSQLAdapter) error
		wantErr string
	}{
		{
			name: "exec",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("CREATE TABLE facilities").WillReturnResult(sqlmock.NewResult(0, 0))
			},
			run: func(ctx context.Context, b *BaseSQLAdapter) error {
				return b.Exec(ctx, "CREATE TABLE facilities (external_id INT)")
			},
		},
		{
			name: "exec failure is wrapped",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("DROP").WillReturnError(assert.AnError)
			},
			run: func(ctx context.Context, b *BaseSQLAdapter) error {
				return b.Exec(ctx, "DROP TABLE facilities")
			},
			wantErr: "failed to execute SQL",
		},
		{
			name: "query",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT external_id").
					WillReturnRows(sqlmock.NewRows([]string{"external_id"}).AddRow(7))
			},
			run: func(ctx context.Context, b *BaseSQLAdapter) error {
				rows, err := b.Query(ctx, "SELECT external_id FROM patients")
				if err != nil {
					return err
				}
				return rows.Close()
			},
		},
		{
			name: "query failure is wrapped",
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT").WillReturnError(assert.AnError)
			},
			run: func(ctx context.Context, b *BaseSQLAdapter) error {
				_, err := b.QueryTable(ctx, "SELECT * FROM visits")
				return err
			},
			wantErr: "failed to execute query",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			tt.expect(mock)
			mock.ExpectClose()

			base := &BaseSQLAdapter{DB: db}
			assert.True(t, base.IsConnected())

			err = tt.run(context.Background(), base)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.ErrorIs(t, err, assert.AnError)
			} else {
				require.NoError(t, err)
			}
			require.NoError(t, base.Close())
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestBaseSQLAdapter_QueryTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	rows := sqlmock.NewRows([]string{"facility_id", "name", "cost"}).
		AddRow(int64(1), []byte("General"), 10.5).
		AddRow(int64(2), "North", nil)
	mock.ExpectQuery("SELECT .* FROM facilities WHERE region").
		WithArgs("EU").
		WillReturnRows(rows)

	base := &BaseSQLAdapter{DB: db}
	tbl, err := base.QueryTable(context.Background(), "SELECT facility_id, name, cost FROM facilities WHERE region = ?", "EU")
	require.NoError(t, err)

	assert.Equal(t, []string{"facility_id", "name", "cost"}, tbl.Names())
	assert.Equal(t, []any{int64(1), "General", 10.5}, tbl.Row(0))
	assert.Nil(t, tbl.Value(1, "cost"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBaseSQLAdapter_QueryTable_Converter(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	rows := sqlmock.NewRowsWithColumnDefinition(
		sqlmock.NewColumn("amount").OfType("NUMERIC", ""),
		sqlmock.NewColumn("note").OfType("TEXT", ""),
	).AddRow("12.50", nil)
	mock.ExpectQuery("SELECT").WillReturnRows(rows)

	var seen []string
	base := &BaseSQLAdapter{DB: db, Convert: func(dbType string, v any) any {
		seen = append(seen, dbType)
		if dbType == "NUMERIC" {
			return 12.5
		}
		return v
	}}
	tbl, err := base.QueryTable(context.Background(), "SELECT amount, note FROM t")
	require.NoError(t, err)

	assert.Equal(t, 12.5, tbl.Value(0, "amount"))
	assert.Equal(t, []string{"NUMERIC"}, seen, "nil values are not converted")
	schema := tbl.Schema()
	assert.Equal(t, "string", schema[1].Type.String(), "all-null column takes its database type")
}

func TestBaseSQLAdapter_ReadTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`SELECT \* FROM "public"\."patients"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	base := &BaseSQLAdapter{DB: db}
	tbl, err := base.ReadTable(context.Background(), "public.patients")
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.Len())

	_, err = (&BaseSQLAdapter{}).ReadTable(context.Background(), "patients")
	assert.ErrorContains(t, err, "database connection not established")
}

func TestBaseSQLAdapter_GetTableMetadataCommon(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("FROM information_schema.columns").
		WithArgs("public", "visits").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable", "ordinal_position"}).
			AddRow("visit_id", "integer", "NO", 1).
			AddRow("visit_timestamp", "timestamp without time zone", "YES", 2))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "public"\."visits"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(100))

	base := &BaseSQLAdapter{
		DB:            db,
		DefaultSchema: "public",
		Placeholder:   func(n int) string { return fmt.Sprintf("$%d", n) },
	}
	meta, err := base.GetTableMetadataCommon(context.Background(), "visits")
	require.NoError(t, err)

	assert.Equal(t, "public", meta.Schema)
	assert.Equal(t, []string{"visit_id", "visit_timestamp"}, meta.ColumnNames())
	assert.False(t, meta.Columns[0].Nullable)
	assert.Equal(t, int64(100), meta.RowCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuoteQualified(t *testing.T) {
	assert.Equal(t, `"visits"`, QuoteQualified("visits"))
	assert.Equal(t, `"src"."generated_visits"`, QuoteQualified("src.generated_visits"))
	assert.Equal(t, `"we""ird"`, QuoteIdentifier(`we"ird`))
}
