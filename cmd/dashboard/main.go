package main

import (
	"github.com/MattB543/ea-forum-clusters/internal/dashboard"
	"github.com/MattB543/ea-forum-clusters/internal/metrics"
	"github.com/MattB543/ea-forum-clusters/pkg/config"
	"github.com/MattB543/ea-forum-clusters/pkg/database"
	"github.com/MattB543/ea-forum-clusters/pkg/logging"
	"github.com/MattB543/ea-forum-clusters/pkg/monitoring"
	"github.com/MattB543/ea-forum-clusters/pkg/server"
	"github.com/MattB543/ea-forum-clusters/pkg/version"
)

func main() {
	// Setup logger
	logger := logging.NewLoggerWithService("cluster-dashboard")

	// Load environment variables
	config.LoadEnv(logger)

	logger.Info("Starting EA Forum Cluster Dashboard")

	cfg := config.FromEnv(logger)

	// The database is optional here: it only powers per-cluster post
	// drill-down. The precomputed CSV artifacts carry the dashboard.
	var db database.PostgresConn
	if dbURL, source, found := config.Resolve(config.DatabaseURLProviders("")...); found {
		dbConfig := database.DefaultConfig()
		dbConfig.URL = dbURL
		conn, err := database.Connect(dbConfig, logger)
		if err != nil {
			logger.WithError(err).Warn("Database unreachable; cluster drill-down disabled")
		} else {
			logger.WithField("source", source).Info("Cluster drill-down enabled")
			db = conn
			defer func() { _ = db.Close() }()
		}
	} else {
		logger.Info("DATABASE_URL not set; cluster drill-down disabled")
	}

	// Setup monitoring
	healthChecker := monitoring.NewHealthChecker("cluster-dashboard", version.Version)
	metricsCollector := monitoring.NewMetricsCollector("cluster-dashboard", version.Version, version.GitCommit)

	healthChecker.AddCheck("level_artifact", monitoring.ArtifactHealthCheck(cfg.LevelCSVPath))
	healthChecker.AddCheck("cluster_artifact", monitoring.ArtifactHealthCheck(cfg.ClusterCSVPath))
	healthChecker.AddCheck("postgres", monitoring.DatabaseHealthCheck(db))

	serviceMetrics := &metrics.Metrics{
		ArtifactLoads:    metricsCollector.NewCounter("artifact_loads_total", "Summary artifact load attempts", []string{"status"}),
		DrilldownQueries: metricsCollector.NewCounter("drilldown_queries_total", "Cluster post drill-down queries", []string{"status"}),
		ExportDownloads:  metricsCollector.NewCounter("export_downloads_total", "Per-level CSV exports", []string{"level"}),
		QueryDuration:    metricsCollector.NewHistogram("query_duration_seconds", "Live query duration", []string{"query_type"}, nil),
	}

	store := dashboard.NewStore(cfg.LevelCSVPath, cfg.ClusterCSVPath, logger)
	if _, _, err := store.Snapshot(); err != nil {
		// Not fatal: the dashboard serves a blocking page directing the
		// operator to run the summarizer, and recovers once artifacts appear.
		logger.WithError(err).Warn("Summary artifacts unavailable at startup")
	}

	posts := dashboard.NewPostFetcher(db, logger)
	handlers := dashboard.NewHandlers(store, posts, logger, serviceMetrics)

	router := server.SetupServiceRouter(logger, "cluster-dashboard", healthChecker, metricsCollector)
	handlers.Register(router)

	serverConfig := server.DefaultConfig("cluster-dashboard", "8080")
	if err := server.Start(serverConfig, router, logger); err != nil {
		logger.WithError(err).Fatal("Server startup failed")
	}
}
