package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ye-allison/SyllaBud/internal/config"
	"github.com/ye-allison/SyllaBud/internal/dashboard"
	"github.com/ye-allison/SyllaBud/internal/logger"
	"github.com/ye-allison/SyllaBud/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
	log        *zap.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "syllabud",
	Short:   "Syllabus dashboard",
	Long:    "SyllaBud summarizes course syllabi with an LLM and tracks weekly schedules, deliverables and deadlines across courses.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		if err := config.LoadEnv(filepath.Join(config.ConfigDir(), ".env"), ".env"); err != nil {
			return err
		}
		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		log, err = logger.New(cfg.Logging, verbose)
		if err != nil {
			return fmt.Errorf("building logger: %w", err)
		}
		if path != "" {
			log.Debug("loaded config", zap.String("path", path))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(coursesCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(deadlinesCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("syllabud", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/syllabud/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to choose the LLM provider and storage; put OPENAI_API_KEY in a .env file next to it.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show course and deadline totals",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		courses, err := a.tracker.List(ctx)
		if err != nil {
			return err
		}
		o := dashboard.ComputeOverview(courses)
		pending := dashboard.UpcomingDeadlines(courses)

		fmt.Printf("Storage: %s", cfg.Storage.Driver)
		if a.db != nil {
			fmt.Printf(" (%s)", a.db.Path())
		}
		fmt.Println()
		fmt.Printf("LLM: %s (configured: %v)\n\n", a.provider.Name(), a.provider.IsConfigured())
		fmt.Println("Courses:")
		fmt.Printf("  Total courses: %d\n", o.CourseCount)
		fmt.Printf("  Total assignments: %d\n", o.TotalDeliverables)
		fmt.Printf("  Completed assignments: %d\n", o.CompletedDeliverables)
		fmt.Printf("  Upcoming deadlines: %d\n", len(pending.Items))
		return nil
	},
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}

		srv, err := server.New(server.Deps{
			Tracker:    a.tracker,
			Ingestor:   a.ingestor,
			Themes:     a.themes,
			Exporter:   a.exporter,
			Metrics:    a.metrics,
			Logger:     log,
			SessionKey: cfg.Server.SessionKey,
			MaxUpload:  cfg.Uploads.MaxBytes,
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(ctx, srv, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8501, "Port to run server on")
}
