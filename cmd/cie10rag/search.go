package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	logpkg "github.com/kailas-cloud/cie10rag/internal/logger"
	searchuc "github.com/kailas-cloud/cie10rag/internal/usecase/search"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	topK    int
	context bool   // print the LLM prompt block instead of a table
	format  string // "text", "json"
}

// searchHit is the JSON shape of one result.
type searchHit struct {
	Code        string  `json:"code"`
	Description string  `json:"description"`
	Similarity  float64 `json:"similarity"`
	Type        string  `json:"type"`
}

type searchOutput struct {
	Query      string      `json:"query"`
	Results    []searchHit `json:"results"`
	TotalFound int         `json:"total_found"`
}

func newSearchCmd(global *globalOptions) *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the code catalogs from the command line",
		Long: `Load the configured catalogs and print the codes most similar to the query.

Examples:
  cie10rag search "neumonia bacteriana"
  cie10rag search "apendicitis aguda" --top-k 5 --format json
  cie10rag search "diabetes tipo 2" --context`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd.Context(), cmd.OutOrStdout(), global, query, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.topK, "top-k", "k", 0, "Maximum number of results (default from config)")
	cmd.Flags().BoolVar(&opts.context, "context", false, "Print the prompt context block")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runSearch(ctx context.Context, w io.Writer, global *globalOptions, query string, opts searchOptions) error {
	if opts.format != "text" && opts.format != "json" {
		return fmt.Errorf("unknown format %q (use text or json)", opts.format)
	}

	cfg, err := global.load()
	if err != nil {
		return err
	}
	// Keep stdout clean for piping: only warnings and errors go to the logger.
	logger, err := logpkg.NewLogger(global.env, "warn")
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	cat, err := loadCatalog(ctx, cfg, logger)
	if err != nil {
		return err
	}
	svc := newSearchService(cat)

	topK := opts.topK
	if topK <= 0 {
		topK = cfg.Search.DefaultTopK
	}
	topK = min(topK, cfg.Search.MaxTopK)

	if opts.context {
		text, err := svc.Context(ctx, query, topK)
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}
		_, err = fmt.Fprintln(w, text)
		return err //nolint:wrapcheck // stdout
	}

	out, err := svc.SearchAll(ctx, query, topK)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	return printSearch(w, opts.format, out)
}

func printSearch(w io.Writer, format string, out searchuc.Outcome) error {
	res := searchOutput{Query: out.Query, Results: make([]searchHit, len(out.Merged)), TotalFound: out.TotalFound}
	for i := range out.Merged {
		h := &out.Merged[i]
		res.Results[i] = searchHit{
			Code:        h.Code(),
			Description: h.Description(),
			Similarity:  h.Similarity(),
			Type:        h.Kind().String(),
		}
	}

	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res) //nolint:wrapcheck // stdout
	}

	if len(res.Results) == 0 {
		_, err := fmt.Fprintf(w, "No codes found for %q\n", res.Query)
		return err //nolint:wrapcheck // stdout
	}
	if _, err := fmt.Fprintf(w, "%d of %d codes for %q\n\n", len(res.Results), res.TotalFound, res.Query); err != nil {
		return err //nolint:wrapcheck // stdout
	}
	for i, h := range res.Results {
		if _, err := fmt.Fprintf(w, "%2d. %-9s %5.1f%%  [%s] %s\n",
			i+1, h.Code, h.Similarity*100, h.Type, h.Description); err != nil {
			return err //nolint:wrapcheck // stdout
		}
	}
	return nil
}
