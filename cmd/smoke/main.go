// Command smoke checks a running applyflow server end to end.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/applyflow/internal/smoke"
	"github.com/okian/applyflow/pkg/logger"
)

// Default configuration constants.
const (
	defaultTopN      = 5
	defaultTimeout   = 2 * time.Minute
	defaultRunBudget = 5 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:8080", "Base URL of the service")
		topN       = flag.Int("top", defaultTopN, "Number of top matches to print")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		skipIngest = flag.Bool("skip-ingest", false, "Check existing data without triggering a run")
		jsonLogs   = flag.Bool("json", false, "Emit JSON logs")
	)
	flag.Parse()

	if err := logger.InitWithOptions(logger.Options{JSON: *jsonLogs}); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunBudget)
	defer cancel()

	cfg := &smoke.Config{
		BaseURL:    *baseURL,
		Timeout:    *timeout,
		TopN:       *topN,
		SkipIngest: *skipIngest,
	}
	if _, err := smoke.Run(ctx, cfg, os.Stdout); err != nil {
		logger.Get().Error(ctx, "smoke check failed", logger.Error(err))
		cancel()
		os.Exit(1)
	}
}
