package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/EbiArnie/ensembl-datacheck/internal/checks"
	"github.com/EbiArnie/ensembl-datacheck/internal/config"
	"github.com/EbiArnie/ensembl-datacheck/internal/datacheck"
	"github.com/EbiArnie/ensembl-datacheck/internal/infrastructure/db"
	httpiface "github.com/EbiArnie/ensembl-datacheck/internal/interfaces/http"
	"github.com/EbiArnie/ensembl-datacheck/internal/report"
)

const version = "v0.3.0"

type runFlags struct {
	configPath  string
	dsn         string
	speciesID   int64
	dbType      string
	names       []string
	group       string
	tap         bool
	metricsAddr string
}

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	rootCmd := &cobra.Command{
		Use:     "datacheck",
		Short:   "Run integrity datachecks against Ensembl core databases",
		Version: version,
		Long: `ensembl-datacheck runs rule-based integrity checks against Ensembl-style
genome annotation databases, reporting pass/fail assertions per check.`,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List registered datachecks",
		RunE:  runList,
	}
	listCmd.Flags().String("group", "", "Only checks in this group")
	listCmd.Flags().String("db-type", "", "Only checks supporting this database type")

	flags := &runFlags{}
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run datachecks against a database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChecks(cmd.Context(), flags)
		},
	}
	runCmd.Flags().StringVar(&flags.configPath, "config", "", "YAML config file")
	runCmd.Flags().StringVar(&flags.dsn, "dsn", "", "MySQL DSN (overrides config)")
	runCmd.Flags().Int64Var(&flags.speciesID, "species-id", 0, "Species scope id (overrides config)")
	runCmd.Flags().StringVar(&flags.dbType, "db-type", "", "Database type tag (overrides config)")
	runCmd.Flags().StringSliceVar(&flags.names, "name", nil, "Check name to run (repeatable; default all)")
	runCmd.Flags().StringVar(&flags.group, "group", "", "Only checks in this group")
	runCmd.Flags().BoolVar(&flags.tap, "tap", false, "Write TAP output to stdout")
	runCmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running")

	rootCmd.AddCommand(listCmd, runCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

func runList(cmd *cobra.Command, args []string) error {
	group, _ := cmd.Flags().GetString("group")
	dbType, _ := cmd.Flags().GetString("db-type")

	registry := checks.DefaultRegistry()
	selected, err := registry.Select(datacheck.Selection{Group: group, DBType: dbType})
	if err != nil {
		return err
	}

	for _, c := range selected {
		meta := c.Metadata()
		fmt.Printf("%s\n  %s\n  groups: %s  db_types: %s\n  tables: %s\n",
			meta.Name,
			meta.Description,
			strings.Join(meta.Groups, ", "),
			strings.Join(meta.DBTypes, ", "),
			strings.Join(meta.Tables, ", "))
	}
	return nil
}

func runChecks(ctx context.Context, flags *runFlags) error {
	cfg := config.Default()
	if flags.configPath != "" {
		loaded, err := config.Load(flags.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if flags.dsn != "" {
		cfg.Database.DSN = flags.dsn
	}
	if flags.speciesID != 0 {
		cfg.Database.SpeciesID = flags.speciesID
	}
	if flags.dbType != "" {
		cfg.Database.DBType = flags.dbType
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	manager, err := db.NewManager(cfg.DBConfig())
	if err != nil {
		return err
	}
	defer manager.Close()

	promRegistry := prometheus.NewRegistry()
	metrics := httpiface.NewMetricsRegistry(promRegistry)

	if flags.metricsAddr != "" {
		serverCfg := cfg.ServerConfigHTTP()
		serverCfg.Addr = flags.metricsAddr
		server := httpiface.NewServer(serverCfg, promRegistry, manager)
		server.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("Metrics server shutdown failed")
			}
		}()
	}

	registry := checks.DefaultRegistry()
	runner := datacheck.NewRunner(registry, metrics)

	var tap *report.TAPWriter
	var sink report.Sink = report.NewLogSink(log.Logger, "")
	if flags.tap {
		tap = report.NewTAPWriter(os.Stdout)
		sink = tap
	}

	results, err := runner.RunSelection(ctx, datacheck.Selection{
		Names:  flags.names,
		Group:  flags.group,
		DBType: cfg.Database.DBType,
	}, manager.Core(), sink)
	if err != nil {
		return err
	}

	failed := 0
	for _, result := range results {
		if result.Skipped && tap != nil {
			tap.Skip(fmt.Sprintf("%s: %s", result.Check, result.SkipReason))
		}
		if !result.OK() {
			failed++
		}
	}
	if tap != nil {
		tap.Flush()
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d datachecks failed", failed, len(results))
	}
	log.Info().Int("checks", len(results)).Msg("All datachecks passed")
	return nil
}
