package main

import (
	"fmt"
	"os"

	"github.com/lychee-technology/eav"
	"github.com/lychee-technology/eav/internal/settings"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configFile   string
	outputFormat string
	logLevel     string

	// resolved in PersistentPreRunE
	cfg *eav.Config
)

var rootCmd = &cobra.Command{
	Use:           "eav-tools",
	Short:         "Operator tooling for the EAV value store",
	Long:          `Create the value store schema and inspect or edit entity types, entities, attributes and values.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogger(logLevel); err != nil {
			return err
		}
		loaded, err := settings.Load(configFile)
		if err != nil {
			return err
		}
		switch outputFormat {
		case formatTable, formatYAML, formatJSON:
		default:
			return fmt.Errorf("unknown output format %q (table, yaml, json)", outputFormat)
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (toml, yaml or json)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", formatTable, "output format: table, yaml or json")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level")

	rootCmd.AddCommand(initDBCmd, dropDBCmd, healthCmd)
	rootCmd.AddCommand(typesCmd, entitiesCmd, attrsCmd, valuesCmd, searchCmd, newImportCmd())
}

func setupLogger(level string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(lvl)
	zapCfg.Encoding = "console"
	zapCfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	logger, err := zapCfg.Build()
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
	_ = zap.L().Sync()
}
