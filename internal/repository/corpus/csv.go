package corpus

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	domcorpus "github.com/kailas-cloud/cie10rag/internal/domain/corpus"
)

func loadCSV(ctx context.Context, src Source) ([]domcorpus.Record, Stats, error) {
	f, err := os.Open(filepath.Clean(src.Path))
	if err != nil {
		return nil, Stats{}, fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.ReuseRecord = true
	if strings.EqualFold(filepath.Ext(src.Path), ".tsv") {
		r.Comma = '\t'
	}

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, Stats{}, fmt.Errorf("empty file")
		}
		return nil, Stats{}, fmt.Errorf("read header: %w", err)
	}
	codeIdx, descIdx := -1, -1
	for i, h := range header {
		switch {
		case codeIdx < 0 && sameColumn(h, src.CodeColumn):
			codeIdx = i
		case descIdx < 0 && sameColumn(h, src.DescriptionColumn):
			descIdx = i
		}
	}
	if codeIdx < 0 || descIdx < 0 {
		return nil, Stats{}, fmt.Errorf("columns %q and %q required, header has %v",
			src.CodeColumn, src.DescriptionColumn, header)
	}

	var (
		out   []domcorpus.Record
		stats Stats
	)
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		stats.Rows++
		if stats.Rows%checkEvery == 0 {
			if cerr := ctx.Err(); cerr != nil {
				return nil, stats, cerr //nolint:wrapcheck // context error
			}
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				stats.Skipped++
				continue
			}
			return nil, stats, fmt.Errorf("read row %d: %w", stats.Rows, err)
		}
		if codeIdx >= len(row) || descIdx >= len(row) {
			stats.Skipped++
			continue
		}
		out = append(out, domcorpus.Record{Code: row[codeIdx], Description: row[descIdx]})
	}
	return out, stats, nil
}
