// Command topicctl imports topic files and inspects the topic graph from
// the command line, against the same backends as the server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Harshitk-cp/topicgraph/internal/buildconfig"
	"github.com/Harshitk-cp/topicgraph/internal/config"
	"github.com/Harshitk-cp/topicgraph/internal/domain"
	"github.com/Harshitk-cp/topicgraph/internal/ingest"
	"github.com/Harshitk-cp/topicgraph/internal/logging"
	"github.com/Harshitk-cp/topicgraph/internal/service"
	"github.com/Harshitk-cp/topicgraph/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:           "topicctl",
		Short:         "Import and inspect topic graphs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.Load()
		},
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); defaults to LOG_LEVEL")

	cmd.AddCommand(importCmd(&logLevel), bootstrapCmd(&logLevel), showCmd(&logLevel))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "topicctl", buildconfig.String())
		},
	})
	return cmd
}

func importCmd(logLevel *string) *cobra.Command {
	var (
		dryRun bool
		scopes []string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Import markdown, CSV, JSON or YAML files",
		Long: `Import reads the given files, turns them into import records and
commits them in batches of at most MAX_IMPORT_BATCH records.

Markdown files (.md) carry a record in their YAML front matter, CSV files
hold one record per row, JSON and YAML files hold a record or a list.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return withService(ctx, *logLevel, func(svc *service.ImportService, logger *zap.Logger) error {
				records, err := ingest.LoadFiles(ctx, args)
				if err != nil {
					return err
				}
				logger.Info("files loaded", zap.Int("files", len(args)), zap.Int("records", len(records)))

				opts := service.BatchOptions{DefaultScopes: scopes, DryRun: dryRun}
				for _, batch := range chunk(records, config.MaxImportBatch()) {
					report, err := svc.ImportBatch(ctx, batch, opts)
					if err != nil {
						return err
					}
					if err := printReport(cmd.OutOrStdout(), report, asJSON); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Resolve records without writing anything")
	cmd.Flags().StringSliceVar(&scopes, "scope", nil, "Scope added to every name, occurrence and association")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full import report as JSON")
	return cmd
}

func bootstrapCmd(logLevel *string) *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap",
		Short: "Create the base vocabulary (kinds, languages, relations)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), *logLevel, func(svc *service.ImportService, _ *zap.Logger) error {
				report, err := svc.Bootstrap(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "bootstrap: %d topics written\n", report.TopicsUpserted)
				return nil
			})
		},
	}
}

func showCmd(logLevel *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a topic as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), *logLevel, func(svc *service.ImportService, _ *zap.Logger) error {
				t, err := svc.Topic(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("topic %q: %w", args[0], err)
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(t)
			})
		},
	}
}

// withService opens the configured backends, runs fn and closes them.
func withService(ctx context.Context, logLevel string, fn func(*service.ImportService, *zap.Logger) error) error {
	if logLevel == "" {
		logLevel = config.LogLevel()
	}
	logger, err := logging.New(config.AppEnv(), logLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	defaultAssociations, err := service.ParseDefaultAssociations(config.DefaultAssociations())
	if err != nil {
		return err
	}

	backends, err := store.OpenBackends(ctx, store.BackendConfig{
		Primary:       config.TopicStore(),
		DatabaseURL:   config.DatabaseURL(),
		Neo4jURI:      config.Neo4jURI(),
		Neo4jUser:     config.Neo4jUser(),
		Neo4jPassword: config.Neo4jPassword(),
		Neo4jDatabase: config.Neo4jDatabase(),
	}, logger)
	if err != nil {
		return err
	}
	defer backends.Close()

	svc := service.NewImportService(backends.Store, service.ImportConfig{
		Bases:               config.TopicBases(),
		ReservedNamespace:   config.ReservedNamespace(),
		DefaultScopes:       config.DefaultScopes(),
		DefaultAssociations: defaultAssociations,
	}, nil, logger)
	for _, m := range backends.Mirrors {
		svc.AddMirror(m)
	}
	return fn(svc, logger)
}

func chunk(records []domain.ImportRecord, size int) [][]domain.ImportRecord {
	if size <= 0 || len(records) <= size {
		return [][]domain.ImportRecord{records}
	}
	var out [][]domain.ImportRecord
	for len(records) > size {
		out = append(out, records[:size])
		records = records[size:]
	}
	return append(out, records)
}

func printReport(w io.Writer, report *domain.ImportReport, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	for _, o := range report.Outcomes {
		switch o.Status {
		case domain.ImportFailed:
			fmt.Fprintf(w, "  FAIL  #%d %s: %s\n", o.Index, o.Record, o.Error)
		case domain.ImportSkipped:
			fmt.Fprintf(w, "  SKIP  #%d %s (protected)\n", o.Index, o.TopicID)
		}
		for _, warn := range o.Warnings {
			fmt.Fprintf(w, "  WARN  #%d %s [%s] %s\n", o.Index, o.Record, warn.Key, warn.Message)
		}
	}
	mode := "committed"
	if report.DryRun {
		mode = "dry run"
	}
	_, err := fmt.Fprintf(w, "batch %s %s: %d ok, %d warned, %d skipped, %d failed, %d topics written\n",
		report.BatchID, mode,
		report.Count(domain.ImportOK), report.Count(domain.ImportWarned),
		report.Count(domain.ImportSkipped), report.Count(domain.ImportFailed),
		report.TopicsUpserted)
	return err
}
