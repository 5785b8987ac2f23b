// Command ingest uploads a product CSV to the catalog from the command line.
//
// Usage:
//
//	ingest -url http://localhost:9000 products.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/stylelens/ingest/internal/core"
	"github.com/stylelens/ingest/internal/logging"
	"github.com/stylelens/ingest/internal/transport"
)

func main() {
	var (
		baseURL   = flag.String("url", os.Getenv("CATALOG_URL"), "catalog base URL (defaults to CATALOG_URL)")
		batchSize = flag.Int("batch-size", core.DefaultBatchSize, "products per upload batch")
		pace      = flag.Duration("pace", core.DefaultPaceInterval, "delay between batches")
		trendID   = flag.Int("trend-id", 0, "default trend id for rows without one (0 = none)")
		timeout   = flag.Duration("timeout", 30*time.Second, "per-request catalog timeout")
		logLevel  = flag.String("log-level", "warn", "log level (debug, info, warn, error)")
	)
	flag.Parse()

	// Pick up CATALOG_URL from .env when present
	godotenv.Load()
	if *baseURL == "" {
		*baseURL = os.Getenv("CATALOG_URL")
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: ingest [flags] <file.csv>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	if *baseURL == "" {
		fmt.Fprintln(os.Stderr, "error: catalog URL required (-url or CATALOG_URL)")
		os.Exit(2)
	}

	logging.Setup(*logLevel, "text")

	path := flag.Arg(0)
	file, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	client := transport.NewClient(*baseURL, &http.Client{Timeout: *timeout})

	var defaultTrend *int
	if *trendID != 0 {
		defaultTrend = trendID
	}

	service := core.NewService(client, core.ServiceConfig{
		BatchSize:         *batchSize,
		PaceInterval:      *pace,
		MaxConcurrentRuns: 1,
		DefaultTrendID:    defaultTrend,
		Logger:            slog.Default(),
	})

	summary, err := service.Run(context.Background(), core.RunOptions{
		FileName: path,
	}, file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", core.FormatUserError(err))
		os.Exit(1)
	}

	printSummary(summary)
	if summary.Status == core.StatusFailed {
		os.Exit(1)
	}
}

func printSummary(s core.Summary) {
	fmt.Printf("%s: %s\n", s.FileName, s.Status)
	fmt.Printf("  rows:     %d total, %d valid, %d invalid\n",
		s.TotalRows, s.ValidRows, len(s.InvalidRows))
	fmt.Printf("  uploaded: %d (%d skipped, %d errors)\n", s.Uploaded, s.Skipped, s.Errors)
	fmt.Printf("  batches:  %d in %s\n", s.TotalBatches, s.Duration.Round(time.Millisecond))

	for _, v := range s.InvalidRows {
		for _, reason := range v.Reasons {
			fmt.Printf("  row %d: %s\n", v.Row, reason)
		}
	}
	for _, msg := range s.ErrorMessages {
		fmt.Printf("  upload error: %s\n", msg)
	}
	if s.Error != "" {
		fmt.Printf("  error: %s\n", s.Error)
	}
}
