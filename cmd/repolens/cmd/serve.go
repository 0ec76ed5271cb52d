package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alimgiray/repolens/internal/handlers"
	"github.com/alimgiray/repolens/internal/progress"
	"github.com/alimgiray/repolens/internal/services"
	"github.com/alimgiray/repolens/internal/workers"
	"github.com/alimgiray/repolens/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the analysis workers",
	Long: `Serve starts the JSON API and a pool of workers that pick queued
analyses up. POST /api/analyses queues a repository, GET /api/analyses/:id
reports its progress stage by stage.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	flags := serveCmd.Flags()
	flags.StringP("port", "p", "8080", "port to listen on")
	flags.Int("analysis-workers", 1, "number of analyses running at once")

	viper.BindPFlag("server.port", flags.Lookup("port"))
	viper.BindPFlag("server.analysis_workers", flags.Lookup("analysis-workers"))
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	gin.SetMode(cfg.Server.Mode)

	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	trackers := progress.NewRegistry()
	pipeline, client, err := a.pipeline(cfg, trackers)
	if err != nil {
		return err
	}

	workerManager := workers.NewWorkerManager(a.jobs, pipeline, services.PipelineOptions{
		MaxWorkers:   cfg.Analysis.MaxWorkers,
		ItemTimeout:  cfg.Analysis.ItemTimeout,
		ScoreCommits: cfg.Analysis.ScoreCommits,
		SkipContent:  cfg.Analysis.SkipContent,
	}, cfg.Server.PollInterval)

	router := handlers.NewRouter(handlers.Handlers{
		Health:   handlers.NewHealthHandler(client, workerManager),
		Analysis: handlers.NewAnalysisHandler(services.NewJobService(a.jobs), trackers),
		Repository: handlers.NewRepositoryHandler(
			a.repos, a.stats, a.commits, a.prs, a.issues, a.content, a.quality,
		),
	}, cfg.Server.APIToken)

	if err := workerManager.StartAll(cfg.Server.AnalysisWorkers); err != nil {
		return err
	}
	defer workerManager.StopAll()

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on :%s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return err
	}

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server shutdown failed")
	}
	logger.Info("Server stopped")
	return nil
}
