// Package corpus loads catalog records from CSV or parquet files.
package corpus

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	domcorpus "github.com/kailas-cloud/cie10rag/internal/domain/corpus"
)

// Format is the on-disk encoding of a corpus file.
type Format string

// Supported formats.
const (
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

// Default column names.
const (
	DefaultCodeColumn        = "code"
	DefaultDescriptionColumn = "description"
)

// checkEvery is how many rows are read between context checks.
const checkEvery = 1024

// Source describes where a corpus lives and which columns hold code and description.
type Source struct {
	Path              string
	Format            Format // empty: guess from extension
	CodeColumn        string
	DescriptionColumn string
}

// Stats summarizes a load.
type Stats struct {
	Rows    int // data rows read, header excluded
	Skipped int // rows that could not be decoded or lacked a column
}

// Load reads every record of src in file order. Malformed rows are skipped
// and counted; an unreadable file, a missing column, a file without data
// rows or one where every row was skipped is an error.
func Load(ctx context.Context, src Source) ([]domcorpus.Record, Stats, error) {
	if src.Path == "" {
		return nil, Stats{}, fmt.Errorf("corpus path is required")
	}
	if src.CodeColumn == "" {
		src.CodeColumn = DefaultCodeColumn
	}
	if src.DescriptionColumn == "" {
		src.DescriptionColumn = DefaultDescriptionColumn
	}

	format, err := resolveFormat(src)
	if err != nil {
		return nil, Stats{}, err
	}

	var (
		records []domcorpus.Record
		stats   Stats
	)
	switch format {
	case FormatCSV:
		records, stats, err = loadCSV(ctx, src)
	case FormatParquet:
		records, stats, err = loadParquet(ctx, src)
	}
	if err != nil {
		return nil, stats, fmt.Errorf("load %s: %w", src.Path, err)
	}
	if stats.Rows == 0 {
		return nil, stats, fmt.Errorf("load %s: no data rows", src.Path)
	}
	if len(records) == 0 {
		return nil, stats, fmt.Errorf("load %s: no valid rows (%d skipped)", src.Path, stats.Skipped)
	}
	return records, stats, nil
}

func resolveFormat(src Source) (Format, error) {
	f := Format(strings.ToLower(string(src.Format)))
	if f == "" {
		switch strings.ToLower(filepath.Ext(src.Path)) {
		case ".csv", ".tsv":
			f = FormatCSV
		case ".parquet":
			f = FormatParquet
		default:
			return "", fmt.Errorf("cannot infer corpus format from %q", src.Path)
		}
	}
	if f != FormatCSV && f != FormatParquet {
		return "", fmt.Errorf("unsupported corpus format %q", src.Format)
	}
	return f, nil
}

// sameColumn compares header names ignoring case, surrounding space and a UTF-8 BOM.
func sameColumn(header, want string) bool {
	header = strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
	return strings.EqualFold(header, strings.TrimSpace(want))
}
