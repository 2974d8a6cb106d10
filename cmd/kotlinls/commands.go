package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"kotlinls/internal/async"
	"kotlinls/internal/config"
	"kotlinls/internal/database"
	"kotlinls/internal/metrics"
	"kotlinls/internal/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

var (
	logFile     string
	configFile  string
	metricsAddr string
	showVersion bool

	rootCmd = &cobra.Command{
		Use:           "kotlinls",
		Short:         "Kotlin language server",
		Long:          "Serves the Language Server Protocol and the kotlin/* extension methods over stdio.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}

	cleanDBCmd = &cobra.Command{
		Use:   "clean-db [root]",
		Short: "Delete the workspace database of a project root (default: current directory)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCleanDB,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&logFile, "logfile", "", "Path to log file")
	rootCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. localhost:9464")
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Print the version of the program")

	rootCmd.AddCommand(cleanDBCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if showVersion {
		fmt.Fprintf(cmd.OutOrStdout(), "kotlinls version %s\n", Version)
		return nil
	}

	closeLog, err := setupLogging(logFile)
	if err != nil {
		return err
	}
	defer closeLog()
	log.Println("Starting kotlinls...")

	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}

	var m *async.Metrics
	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		m = async.NewMetrics(reg)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			if err := metrics.Serve(ctx, metricsAddr, reg); err != nil {
				log.Printf("metrics server failed: %v", err)
			}
		}()
	}

	srv := server.New(server.Options{
		Name:    "kotlinls",
		Version: Version,
		Config:  cfg,
		Metrics: m,
	})
	return srv.RunStdio()
}

func runCleanDB(cmd *cobra.Command, args []string) error {
	closeLog, err := setupLogging(logFile)
	if err != nil {
		return err
	}
	defer closeLog()

	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}

	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	root, err = filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", root, err)
	}

	path, err := cfg.DatabasePath(root)
	if err != nil {
		return err
	}
	db, err := database.NewSQLiteDB(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Clear(true); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Database cleared: %s\n", db.Path())
	return nil
}

// setupLogging routes the stdlib logger to path, or discards it when path is
// empty since stdout carries the protocol.
func setupLogging(path string) (func(), error) {
	commonlog.Configure(2, nil) // Logger used by glsp

	if path == "" {
		log.SetOutput(io.Discard)
		return func() {}, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	log.SetOutput(f)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	return func() { f.Close() }, nil
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.LoadFile(path)
}
