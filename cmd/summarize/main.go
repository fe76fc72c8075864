package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MattB543/ea-forum-clusters/internal/artifact"
	"github.com/MattB543/ea-forum-clusters/internal/schema"
	"github.com/MattB543/ea-forum-clusters/internal/summary"
	"github.com/MattB543/ea-forum-clusters/pkg/config"
	"github.com/MattB543/ea-forum-clusters/pkg/database"
	"github.com/MattB543/ea-forum-clusters/pkg/logging"
	"github.com/MattB543/ea-forum-clusters/pkg/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:           "summarize",
		Short:         "Summarize EA Forum cluster score statistics by level",
		Long:          "Aggregates forum posts by precomputed cluster assignments (levels 5/12/30/60 by default), prints a per-level report, and writes the two CSV summary artifacts consumed by the dashboard.",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, v)
		},
	}

	cmd.Flags().String("database-url", "", "Postgres connection string (default: DATABASE_URL env or .env)")
	cmd.Flags().String("levels", "", "comma-separated cluster levels to process (default: 5,12,30,60)")
	cmd.Flags().String("classification", "", "restrict the per-level report to one ea_classification label")
	cmd.Flags().String("output-dir", "", "directory for the CSV artifacts (default: current directory)")

	_ = v.BindPFlag("database-url", cmd.Flags().Lookup("database-url"))
	_ = v.BindPFlag("levels", cmd.Flags().Lookup("levels"))
	_ = v.BindPFlag("classification", cmd.Flags().Lookup("classification"))
	_ = v.BindPFlag("output-dir", cmd.Flags().Lookup("output-dir"))
	_ = v.BindEnv("levels", "CLUSTER_LEVELS")
	_ = v.BindEnv("classification", "EA_CLASSIFICATION_FILTER")
	_ = v.BindEnv("output-dir", "CLUSTER_SUMMARY_CSV_DIR")

	return cmd
}

func run(cmd *cobra.Command, v *viper.Viper) error {
	logger := logging.NewLoggerWithService("cluster-summarize")
	config.LoadEnv(logger)

	levels := config.ParseLevels(v.GetString("levels"), logger)
	classificationFilter := v.GetString("classification")
	outputDir := v.GetString("output-dir")
	if outputDir == "" {
		outputDir = "."
	}
	levelCSV := filepath.Join(outputDir, config.LevelSummaryFile)
	clusterCSV := filepath.Join(outputDir, config.ClusterSummaryFile)

	dbURL, source, found := config.Resolve(config.DatabaseURLProviders(v.GetString("database-url"))...)
	if !found {
		return fmt.Errorf("database URL is required: set DATABASE_URL or pass --database-url")
	}
	logger.WithField("source", source).Debug("Resolved database URL")

	// Connection failure is fatal before any artifact is touched; the prior
	// artifacts stay intact.
	dbConfig := database.DefaultConfig()
	dbConfig.URL = dbURL
	db, err := database.Connect(dbConfig, logger)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	ctx := cmd.Context()
	printer := summary.NewConsolePrinter(cmd.OutOrStdout())
	generator := summary.NewGenerator(db, logger)

	hasClassification, err := schema.HasClassification(ctx, db)
	if err != nil {
		return err
	}
	if !hasClassification {
		classificationFilter = ""
	}

	// Top-level summary: EA Meta vs Proper
	if hasClassification {
		overview, err := generator.ClassificationOverview(ctx)
		if err != nil {
			return err
		}
		printer.Header("EA Meta vs Proper Summary (base_score and score)")
		printer.ClassificationOverview(overview)
	}

	printer.Header("EA Forum Cluster Score Summary")

	var resolved []schema.LevelColumns
	for _, level := range levels {
		lc, ok, err := schema.ResolveLevel(ctx, db, level)
		if err != nil {
			return err
		}
		if !ok {
			printer.SkippedLevel(level, schema.IDColumn(level))
			continue
		}
		resolved = append(resolved, lc)
	}

	// Primary summaries (optionally filtered by a single classification)
	for _, lc := range resolved {
		groups, err := generator.LevelGroups(ctx, lc, classificationFilter)
		if err != nil {
			return err
		}
		printer.LevelGroups(lc.Level, classificationFilter, groups)
	}

	report, err := generator.GenerateReports(ctx, resolved)
	if err != nil {
		return err
	}
	if err := artifact.WriteLevelSummaries(levelCSV, report.Levels); err != nil {
		return err
	}
	if err := artifact.WriteClusterSummaries(clusterCSV, report.Clusters); err != nil {
		return err
	}
	printer.ArtifactWritten(levelCSV)
	printer.ArtifactWritten(clusterCSV)

	// Optional breakdowns per classification when no explicit filter was set
	if hasClassification && classificationFilter == "" {
		values, err := schema.ClassificationValues(ctx, db)
		if err != nil {
			return err
		}
		if len(values) > 0 {
			printer.Header("Breakdown by EA Classification")
			for _, cls := range values {
				for _, lc := range resolved {
					groups, err := generator.LevelGroups(ctx, lc, cls)
					if err != nil {
						return err
					}
					printer.LevelGroups(lc.Level, cls, groups)
				}
			}
		}
	}

	return nil
}
