package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"schoolkr/internal/components/chrono"
	"schoolkr/internal/components/configutil"
	"schoolkr/internal/components/serviceutil"
	"schoolkr/internal/components/telemetry"
	"schoolkr/internal/portal"
	"schoolkr/pkg/school"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

var (
	configPath *string
	verbose    *bool
	dumpDir    *string
)

var (
	cfg    Config
	client *portal.Client
	facade *school.School
	tel    telemetry.Telemetry
)

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "schoolkr.json5", "The configuration file, <name>.local.<ext> overrides it.")
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log requests and other debug information.")
	dumpDir = rootCmd.PersistentFlags().String("dump", "", "A directory to write the full text of every http exchange to.")
}

var rootCmd = &cobra.Command{
	Use:   "schoolkr",
	Short: "schoolkr is a CLI for the school search, meal and calendar endpoints of the regional education office portals.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initSlog(*verbose)

		var err error
		cfg, err = configutil.ReadConfigOr(*configPath, defaultConfig)
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}

		tel, err = telemetry.Setup(cmd.Context(), "schoolkr", cfg.Telemetry)
		if err != nil {
			serviceutil.Fatal("failed to setup telemetry", err)
		}

		registry, err := cfg.registry()
		if err != nil {
			serviceutil.Fatal("invalid region overrides", err)
		}
		opts, err := cfg.portalOptions()
		if err != nil {
			serviceutil.Fatal("invalid initial region", err)
		}
		if *dumpDir != "" {
			output, err := telemetry.NewFilesystemOutput(*dumpDir)
			if err != nil {
				serviceutil.Fatal("failed to prepare dump directory", err)
			}
			opts.MessageOutput = output
		}
		client, err = portal.NewClient(registry, opts, chrono.NewStandardImpl(), telemetry.SlogAPI{})
		if err != nil {
			serviceutil.Fatal("failed to create portal client", err)
		}
		facade = school.New(client, cfg.schoolOptions(), telemetry.SlogAPI{})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		err := tel.Shutdown(ctx)
		if err != nil {
			slog.Warn("failed to flush telemetry", "err", err)
		}
	},
}

func initSlog(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
