package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/google/subcommands"

	"github.com/rickgao/stockdb/internal/llm"
	"github.com/rickgao/stockdb/internal/report"
)

const defaultQuery = "營收變化與銷售增長"

type reportCmd struct {
	query   string
	rebuild bool
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "downloads and summarizes annual reports" }
func (*reportCmd) Usage() string {
	return `stockdb report fetch <ticker> <year>
stockdb report summarize [-query text] [-rebuild] <pdf>

fetch downloads the annual report of a company for a year (the exchange's
own year numbering, e.g. 112) into reports.pdf_dir.

summarize indexes the PDF into reports.index_dir (reusing an existing index
unless -rebuild is given), retrieves the chunks closest to the query and asks
the language model for a summary in Traditional Chinese.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.query, "query", defaultQuery, "What to look for in the report.")
	f.BoolVar(&c.rebuild, "rebuild", false, "Rebuild the index even if one is stored.")
}

func (c *reportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	switch f.Arg(0) {
	case "fetch":
		if f.NArg() != 3 {
			f.Usage()
			return subcommands.ExitUsageError
		}
		year, err := strconv.Atoi(f.Arg(2))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid year %q\n", f.Arg(2))
			return subcommands.ExitUsageError
		}
		return c.fetch(ctx, f.Arg(1), year)
	case "summarize":
		if f.NArg() != 2 {
			f.Usage()
			return subcommands.ExitUsageError
		}
		return c.summarize(ctx, f.Arg(1))
	default:
		f.Usage()
		return subcommands.ExitUsageError
	}
}

func (c *reportCmd) fetch(ctx context.Context, ticker string, year int) subcommands.ExitStatus {
	a, err := setup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	r := a.cfg.Reports
	d := report.NewDownloader(report.DownloaderConfig{
		BaseURL:  a.cfg.Sources.MOPSURL,
		FormPath: a.cfg.Sources.MOPSFormPath,
		PDFDir:   r.PDFDir,
		MinWait:  r.MinWait,
		MaxWait:  r.MaxWait,
	}, a.httpClient(), a.logger)

	path, err := d.AnnualReport(ctx, ticker, year)
	if errors.Is(err, report.ErrNoReport) {
		fmt.Fprintf(os.Stderr, "No annual report found for %s in %d; check the ticker and year.\n", ticker, year)
		return subcommands.ExitFailure
	}
	if err != nil {
		a.logger.Error("failed to download annual report", "ticker", ticker, "year", year, "error", err)
		return subcommands.ExitFailure
	}

	fmt.Println(path)
	return subcommands.ExitSuccess
}

func (c *reportCmd) summarize(ctx context.Context, pdfPath string) subcommands.ExitStatus {
	a, err := setup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	gemini, err := llm.NewGemini(ctx, a.cfg.LLM, a.logger)
	if err != nil {
		a.logger.Error("failed to create language model client", "error", err)
		return subcommands.ExitFailure
	}

	r := a.cfg.Reports
	indexer := report.NewIndexer(report.IndexerConfig{
		Dir:          r.IndexDir,
		ChunkSize:    r.ChunkSize,
		ChunkOverlap: r.Overlap(),
	}, nil, gemini, a.logger)

	var idx *report.Index
	if c.rebuild {
		idx, err = indexer.Build(ctx, pdfPath)
	} else {
		idx, err = indexer.Open(ctx, pdfPath)
	}
	if err != nil {
		a.logger.Error("failed to index report", "pdf", pdfPath, "error", err)
		return subcommands.ExitFailure
	}

	summary, err := report.NewSummarizer(gemini, r.TopK, a.logger).Analyze(ctx, idx, c.query)
	if err != nil {
		a.logger.Error("failed to summarize report", "pdf", pdfPath, "error", err)
		return subcommands.ExitFailure
	}

	fmt.Println(summary)
	return subcommands.ExitSuccess
}
