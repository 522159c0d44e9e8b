package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string
	workers   int
)

var rootCmd = &cobra.Command{
	Use:   "folio",
	Short: "Folio - semantic document reconstruction from page dumps",
	Long: `Folio turns dumped page geometry (text spans, images, vector paths and
fill rectangles) into semantic documents: sections, columns, paragraphs,
tables and placed images.

Input is the JSON page-dump interchange produced by an upstream page
parser. Output formats: plain text, Markdown, HTML and XLSX.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default folio.yaml in the working directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "terminal", "log format: terminal, json, off")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "page workers (0 means one per CPU)")

	cobra.CheckErr(viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level")))
	cobra.CheckErr(viper.BindPFlag("log-format", rootCmd.PersistentFlags().Lookup("log-format")))
	cobra.CheckErr(viper.BindPFlag("workers", rootCmd.PersistentFlags().Lookup("workers")))

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(tablesCmd)
	rootCmd.AddCommand(inspectCmd)
}

// initConfig layers an optional config file and FOLIO_* environment
// variables under the flags.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("folio")
		viper.SetConfigType("yaml")
	}
	viper.SetEnvPrefix("FOLIO")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			cobra.CheckErr(err)
		}
	}
}

// buildLogger creates the conversion logger: terminal or json style at the
// configured level, or a nop logger when logging is off.
func buildLogger() *zap.Logger {
	style := viper.GetString("log-format")
	if style == "off" {
		return zap.NewNop()
	}
	level := zapcore.WarnLevel
	if lvl, err := zapcore.ParseLevel(viper.GetString("log-level")); err == nil {
		level = lvl
	}
	var cfg zap.Config
	if style == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	logger, err := cfg.Build(zap.AddStacktrace(zap.ErrorLevel))
	cobra.CheckErr(err)
	return logger
}

// parsePageList expands an expression like "1,3,5-9" into 1-indexed page
// numbers.
func parsePageList(expr string) ([]int, error) {
	var pages []int
	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			start, err := strconv.Atoi(strings.TrimSpace(lo))
			if err != nil {
				return nil, fmt.Errorf("bad page range %q", part)
			}
			end, err := strconv.Atoi(strings.TrimSpace(hi))
			if err != nil || end < start {
				return nil, fmt.Errorf("bad page range %q", part)
			}
			for p := start; p <= end; p++ {
				pages = append(pages, p)
			}
			continue
		}
		p, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("bad page number %q", part)
		}
		pages = append(pages, p)
	}
	return pages, nil
}
