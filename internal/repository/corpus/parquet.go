package corpus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	domcorpus "github.com/kailas-cloud/cie10rag/internal/domain/corpus"
)

// parquetBatch is the number of rows decoded per ReadRows call.
const parquetBatch = 1000

func loadParquet(ctx context.Context, src Source) ([]domcorpus.Record, Stats, error) {
	f, err := os.Open(filepath.Clean(src.Path))
	if err != nil {
		return nil, Stats{}, fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, Stats{}, fmt.Errorf("stat: %w", err)
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, Stats{}, fmt.Errorf("open parquet: %w", err)
	}

	codeIdx, descIdx := -1, -1
	for i, path := range pf.Schema().Columns() {
		if len(path) != 1 {
			continue
		}
		switch {
		case codeIdx < 0 && sameColumn(path[0], src.CodeColumn):
			codeIdx = i
		case descIdx < 0 && sameColumn(path[0], src.DescriptionColumn):
			descIdx = i
		}
	}
	if codeIdx < 0 || descIdx < 0 {
		return nil, Stats{}, fmt.Errorf("columns %q and %q required in parquet schema",
			src.CodeColumn, src.DescriptionColumn)
	}

	var (
		out   []domcorpus.Record
		stats Stats
	)
	buf := make([]parquet.Row, parquetBatch)
	for _, rg := range pf.RowGroups() {
		if err := ctx.Err(); err != nil {
			return nil, stats, err //nolint:wrapcheck // context error
		}
		rows := parquet.NewRowGroupReader(rg)
		for {
			n, readErr := rows.ReadRows(buf)
			for i := 0; i < n; i++ {
				stats.Rows++
				rec, ok := rowToRecord(buf[i], codeIdx, descIdx)
				if !ok {
					stats.Skipped++
					continue
				}
				out = append(out, rec)
			}
			if readErr != nil {
				if errors.Is(readErr, io.EOF) {
					break
				}
				return nil, stats, fmt.Errorf("read rows: %w", readErr)
			}
		}
	}
	return out, stats, nil
}

// rowToRecord extracts code and description from a generic row. Null values
// count as missing.
func rowToRecord(row parquet.Row, codeIdx, descIdx int) (domcorpus.Record, bool) {
	var (
		rec             domcorpus.Record
		hasCode, hasDsc bool
	)
	for _, v := range row {
		switch v.Column() {
		case codeIdx:
			if !v.IsNull() {
				rec.Code = v.String()
				hasCode = true
			}
		case descIdx:
			if !v.IsNull() {
				rec.Description = v.String()
				hasDsc = true
			}
		}
	}
	return rec, hasCode && hasDsc
}
