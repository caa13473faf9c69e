package smoke

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/okian/applyflow/pkg/logger"
)

// Run executes the smoke check and writes the top matches to out.
func Run(ctx context.Context, cfg *Config, out io.Writer) (*Stats, error) {
	log := cfg.Logger
	if log == nil {
		log = logger.Named("smoke")
	}
	stats := &Stats{StartTime: time.Now()}
	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting applyflow smoke check",
		logger.String("baseURL", cfg.BaseURL),
		logger.Duration("timeout", cfg.Timeout),
		logger.Bool("skipIngest", cfg.SkipIngest))

	// Step 1: Check service health
	if _, err := checkHealth(ctx, client); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Trigger one ingestion run
	var sum summary
	if !cfg.SkipIngest {
		if err := client.postJSON(ctx, "/jobs/ingest", &sum); err != nil {
			return stats, fmt.Errorf("ingest failed: %w", err)
		}
		stats.Saved, stats.SkippedDup, stats.Failed = sum.Saved, sum.SkippedDup, sum.Failed
		log.Info(ctx, "ingestion completed",
			logger.String("run_id", sum.RunID),
			logger.Int("saved", sum.Saved),
			logger.Int("skipped_dup", sum.SkippedDup),
			logger.Int("failed", sum.Failed))
	}

	// Step 3: List applications
	var resp applicationsResponse
	if err := client.getJSON(ctx, "/applications", &resp); err != nil {
		return stats, fmt.Errorf("list applications failed: %w", err)
	}
	stats.Applications = len(resp.Applications)

	// Step 4: Verify results
	if err := verifyOrdering(resp.Applications); err != nil {
		return stats, err
	}
	if !cfg.SkipIngest {
		h, err := checkHealth(ctx, client)
		if err != nil {
			return stats, err
		}
		if err := verifySummary(sum, h, resp.Applications); err != nil {
			return stats, err
		}
	}

	printTop(out, resp.Applications, cfg.TopN)

	stats.Duration = time.Since(stats.StartTime)
	log.Info(ctx, "smoke check passed",
		logger.Int("applications", stats.Applications),
		logger.Duration("duration", stats.Duration))
	return stats, nil
}

func checkHealth(ctx context.Context, client *httpClient) (health, error) {
	var h health
	if err := client.getJSON(ctx, "/health", &h); err != nil {
		return h, err
	}
	if h.Status != "ok" {
		return h, fmt.Errorf("%w: status=%s db=%s", ErrUnhealthy, h.Status, h.DB)
	}
	return h, nil
}

func printTop(out io.Writer, apps []application, n int) {
	if n > len(apps) {
		n = len(apps)
	}
	if n <= 0 {
		return
	}
	fmt.Fprintf(out, "Top %d matches:\n", n)
	for i, a := range apps[:n] {
		fmt.Fprintf(out, "%d. [%.1f] %s @ %s (%s)\n", i+1, a.MatchScore, a.Title, a.Company, a.Status)
	}
}
