package corpus

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domcorpus "github.com/kailas-cloud/cie10rag/internal/domain/corpus"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_CSV(t *testing.T) {
	path := writeFile(t, "diagnosticos.csv",
		"\ufeffCódigo,Descripción,Capítulo\n"+
			"E11.9,\"Diabetes mellitus tipo 2, sin complicaciones\",4\n"+
			"J18.9,Neumonia no especificada,10\n"+
			"short\n"+
			"I10,Hipertension esencial,9\n")

	recs, stats, err := Load(context.Background(), Source{
		Path: path, CodeColumn: "código", DescriptionColumn: "DESCRIPCIÓN",
	})
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Rows)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, []domcorpus.Record{
		{Code: "E11.9", Description: "Diabetes mellitus tipo 2, sin complicaciones"},
		{Code: "J18.9", Description: "Neumonia no especificada"},
		{Code: "I10", Description: "Hipertension esencial"},
	}, recs)
}

func TestLoad_CSVDefaultColumns(t *testing.T) {
	path := writeFile(t, "proc.csv", "description,code\nEscision de estomago,0DB60ZZ\n")

	recs, _, err := Load(context.Background(), Source{Path: path, Format: FormatCSV})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "0DB60ZZ", recs[0].Code)
}

func TestLoad_CSVErrors(t *testing.T) {
	ctx := context.Background()

	_, _, err := Load(ctx, Source{Path: writeFile(t, "empty.csv", "")})
	assert.ErrorContains(t, err, "empty file")

	_, _, err = Load(ctx, Source{Path: writeFile(t, "header.csv", "code,description\n")})
	assert.ErrorContains(t, err, "no data rows")

	recs, stats, err := Load(ctx, Source{Path: writeFile(t, "malformed.csv", "code,description\nonlyone\nalsoone\n")})
	assert.ErrorContains(t, err, "no valid rows (2 skipped)")
	assert.Nil(t, recs)
	assert.Equal(t, Stats{Rows: 2, Skipped: 2}, stats)

	_, _, err = Load(ctx, Source{Path: writeFile(t, "cols.csv", "id,text\n1,x\n")})
	assert.ErrorContains(t, err, "required")

	_, _, err = Load(ctx, Source{Path: filepath.Join(t.TempDir(), "missing.csv")})
	assert.Error(t, err)

	_, _, err = Load(ctx, Source{})
	assert.Error(t, err)
}

func TestResolveFormat(t *testing.T) {
	tests := []struct {
		src     Source
		want    Format
		wantErr bool
	}{
		{Source{Path: "a.csv"}, FormatCSV, false},
		{Source{Path: "a.TSV"}, FormatCSV, false},
		{Source{Path: "a.parquet"}, FormatParquet, false},
		{Source{Path: "a.xlsx"}, "", true},
		{Source{Path: "a.bin", Format: "PARQUET"}, FormatParquet, false},
		{Source{Path: "a.csv", Format: "json"}, "", true},
	}
	for _, tt := range tests {
		got, err := resolveFormat(tt.src)
		if tt.wantErr {
			assert.Error(t, err, tt.src.Path)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

type codeRow struct {
	Code        string  `parquet:"codigo"`
	Description *string `parquet:"descripcion,optional"`
	Chapter     int32   `parquet:"capitulo"`
}

func TestLoad_Parquet(t *testing.T) {
	desc := func(s string) *string { return &s }
	path := filepath.Join(t.TempDir(), "diagnosticos.parquet")
	require.NoError(t, parquet.WriteFile(path, []codeRow{
		{Code: "E11.9", Description: desc("Diabetes mellitus tipo 2"), Chapter: 4},
		{Code: "R50.9", Description: nil, Chapter: 18},
		{Code: "J18.9", Description: desc("Neumonia no especificada"), Chapter: 10},
	}))

	recs, stats, err := Load(context.Background(), Source{
		Path: path, CodeColumn: "codigo", DescriptionColumn: "descripcion",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Rows)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, []domcorpus.Record{
		{Code: "E11.9", Description: "Diabetes mellitus tipo 2"},
		{Code: "J18.9", Description: "Neumonia no especificada"},
	}, recs)
}

func TestLoad_ParquetMissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.parquet")
	require.NoError(t, parquet.WriteFile(path, []codeRow{{Code: "E11.9", Chapter: 4}}))

	_, _, err := Load(context.Background(), Source{Path: path})
	assert.ErrorContains(t, err, "required in parquet schema")
}
