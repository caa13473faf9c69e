package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/okian/applyflow/internal/domain/model"
	"github.com/okian/applyflow/internal/ingest"
	"github.com/okian/applyflow/pkg/logger"
)

const defaultTopN = 5

func newIngestCmd(c *cli) *cobra.Command {
	top := defaultTopN
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Run one ingestion pass and print the summary and best matches",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.ingestOnce(cmd.Context(), cmd.OutOrStdout(), top)
		},
	}
	cmd.Flags().IntVar(&top, "top", defaultTopN, "Number of top matches to print")
	return cmd
}

func (c *cli) ingestOnce(ctx context.Context, out io.Writer, top int) error {
	log := logger.Get()

	svc, err := buildService(ctx, c.cfg, log, false)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := svc.Stop(context.WithoutCancel(ctx)); err != nil {
			log.Error(ctx, "service shutdown failed", logger.Error(err))
		}
	}()

	sum, err := svc.TriggerIngest(ctx)
	if err != nil {
		return err
	}
	apps, err := svc.ListApplications(ctx)
	if err != nil {
		return err
	}
	return printReport(out, sum, apps, top)
}

// printReport writes the run summary as JSON followed by the top matches.
func printReport(out io.Writer, sum ingest.Summary, apps []model.ApplicationView, top int) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sum); err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}

	if top > len(apps) {
		top = len(apps)
	}
	if top <= 0 {
		return nil
	}
	fmt.Fprintf(out, "\nTop %d matches:\n", top)
	for i, a := range apps[:top] {
		fmt.Fprintf(out, "%d. [%.1f] %s @ %s\n", i+1, a.MatchScore, a.Title, a.Company)
		if len(a.MissingSkills) > 0 {
			fmt.Fprintf(out, "   missing: %v\n", a.MissingSkills)
		}
	}
	return nil
}
