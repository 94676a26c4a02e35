// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the cloudconvert CLI, a thin command
// line front end over pkg/cloudconvert.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/cloudconvert/internal/metrics"
	"github.com/pdiddy/cloudconvert/internal/secrets"
	"github.com/pdiddy/cloudconvert/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// app holds the state shared by every subcommand once the root command has
// initialized it.
type app struct {
	cfg      types.Config
	log      *logrus.Logger
	registry *prometheus.Registry
	reporter *metrics.Reporter
}

var cli = &app{}

var rootCmd = &cobra.Command{
	Use:   "cloudconvert",
	Short: "Convert and merge files with the CloudConvert API",
	Long: `cloudconvert converts local or remote files between formats and merges
remote PDFs through the CloudConvert API. Results are written to a local path
or to S3-compatible object storage, and every job is recorded in a local
history database.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return cli.init()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./cloudconvert.yaml or ~/.config/cloudconvert/cloudconvert.yaml)")
	pf.String("api-key", "", "CloudConvert API key (default: config, CLOUDCONVERT_API_KEY, or .secrets/cloudconvert-api-key)")
	pf.String("process-url", "", "process creation endpoint (default "+defaultProcessURLHelp+")")
	pf.Duration("timeout", defaultTimeout, "HTTP request timeout")
	pf.Int("max-files", 0, "maximum number of files per merge (default 10)")
	pf.String("secrets-dir", ".secrets/", "directory holding secret key files")
	pf.String("history-db", "", "job history database (default: user cache dir)")
	pf.Bool("no-history", false, "do not record jobs in the history database")
	pf.String("log-level", "warning", "log level: trace, debug, info, warning, error")
	pf.String("log-format", "text", "log format: text or json")
	pf.Bool("metrics", false, "print collected API metrics to stderr on exit")

	for key, flag := range map[string]string{
		"api_key":          "api-key",
		"process_url":      "process-url",
		"timeout":          "timeout",
		"max_files":        "max-files",
		"secrets_dir":      "secrets-dir",
		"history.path":     "history-db",
		"history.disabled": "no-history",
		"log_level":        "log-level",
		"log_format":       "log-format",
		"metrics":          "metrics",
	} {
		if err := viper.BindPFlag(key, pf.Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("cloudconvert")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "cloudconvert"))
		}
	}

	viper.SetEnvPrefix("CLOUDCONVERT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// init builds the logger, configuration, and metrics registry.
func (a *app) init() error {
	log, err := newLogger(viper.GetString("log_level"), viper.GetString("log_format"))
	if err != nil {
		return err
	}
	a.log = log

	s, err := secrets.Load(viper.GetString("secrets_dir"), log)
	if err != nil {
		return err
	}
	if len(s) > 0 {
		log.WithField("count", len(s)).Debug("Loaded secrets.")
	}

	a.cfg = loadConfig(s)

	a.registry = prometheus.NewRegistry()
	a.reporter, err = metrics.NewReporter(a.registry)
	return err
}

func newLogger(level, format string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(lvl)

	switch format {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("invalid log format %q: want text or json", format)
	}
	return log, nil
}

// executeRoot runs the command tree. With --metrics the collected metrics are
// written to stderr afterwards, whether or not the command failed.
func executeRoot() error {
	cli.registry = nil
	err := rootCmd.Execute()
	if cli.registry != nil && viper.GetBool("metrics") {
		if mErr := metrics.WriteText(rootCmd.ErrOrStderr(), cli.registry); mErr != nil && err == nil {
			err = mErr
		}
	}
	return err
}

func main() {
	if err := executeRoot(); err != nil {
		os.Exit(1)
	}
}
