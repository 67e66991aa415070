// Package cli implements the cobra-based command surface for xlsx2csv.
//
// Unlike a multi-verb tool, the root command carries the conversion
// operation itself (`xlsx2csv SOURCE [DEST]`); the only subcommand is
// `batch`, which runs a manifest of conversions. This file defines the root
// command, the error/exit handling, and the debug tracing helper.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/xlsx2csv/internal/config"
	"github.com/shinji-kodama/xlsx2csv/internal/convert"
	"github.com/shinji-kodama/xlsx2csv/internal/model"
)

// debug enables verbose execution tracing on stderr. Bound to the --debug
// persistent flag, so it applies to the batch subcommand as well.
var debug bool

// Version, Commit, and Date are injected from the main package at build
// time via ldflags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// rootFlags holds the flag values for the root (convert) command.
type rootFlags struct {
	encoding string // --encoding: output encoding alias
	engine   string // --engine: conversion backend
}

// NewRootCommand creates and configures the root cobra command.
func NewRootCommand() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "xlsx2csv SOURCE [DEST]",
		Short: "Convert a spreadsheet file (.xls/.xlsx) to CSV",
		Long: `xlsx2csv converts a spreadsheet file to CSV.

By default the conversion is delegated to a headless office suite binary
(soffice/libreoffice) when one is installed, and falls back to built-in
spreadsheet readers otherwise. DEST may be an existing directory (the CSV is
placed inside it), an explicit file path, or omitted (the CSV lands next to
where you ran the command, named after the source).

Examples:
  xlsx2csv report.xlsx
  xlsx2csv report.xlsx out/
  xlsx2csv -e sjis legacy.xls /tmp/legacy.csv
  xlsx2csv --engine docker report.xlsx`,

		// Errors and usage are printed by Execute, not by cobra, so that
		// error output honors the terminal coloring rules.
		SilenceUsage:  true,
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return model.NewCLIError(model.KindUsage, "missing SOURCE argument")
			}
			if len(args) > 2 {
				return model.NewCLIError(model.KindArgument,
					fmt.Sprintf("too many arguments: expected SOURCE [DEST], got %d", len(args)))
			}
			return nil
		},

		RunE: func(cmd *cobra.Command, args []string) error {
			destArg := ""
			if len(args) == 2 {
				destArg = args[1]
			}
			return runConvert(cmd, flags, args[0], destArg)
		},
	}

	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable verbose execution tracing")
	rootCmd.Flags().StringVarP(&flags.encoding, "encoding", "e", "",
		"Output encoding: utf8|UTF-8|sjis|Shift-JIS (default utf8)")
	rootCmd.Flags().StringVar(&flags.engine, "engine", "",
		"Conversion engine: auto|office|native|docker (default auto)")

	rootCmd.AddCommand(NewBatchCommand())

	return rootCmd
}

// runConvert merges flags over the config file and performs one conversion.
func runConvert(cmd *cobra.Command, flags *rootFlags, sourceArg, destArg string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	opts, err := buildOptions(cfg, flags.encoding, flags.engine)
	if err != nil {
		return err
	}

	dest, err := convert.Run(cmd.Context(), opts, sourceArg, destArg)
	if err != nil {
		return err
	}

	fmt.Printf("Converted: %s\n", dest)
	return nil
}

// buildOptions computes the effective conversion options: flag value when
// set, config-file value otherwise, built-in default last.
func buildOptions(cfg *config.Config, encodingFlag, engineFlag string) (convert.Options, error) {
	encodingAlias := encodingFlag
	if encodingAlias == "" {
		encodingAlias = cfg.Encoding
	}
	encoding := model.EncodingUTF8
	if encodingAlias != "" {
		var err error
		encoding, err = model.ParseEncoding(encodingAlias)
		if err != nil {
			return convert.Options{}, model.WrapCLIError(model.KindArgument, "invalid --encoding value", err)
		}
	}

	engineAlias := engineFlag
	if engineAlias == "" {
		engineAlias = cfg.Engine
	}
	engine, err := model.ParseEngine(engineAlias)
	if err != nil {
		return convert.Options{}, model.WrapCLIError(model.KindArgument, "invalid --engine value", err)
	}

	return convert.Options{
		Encoding:    encoding,
		Engine:      engine,
		SofficePath: cfg.SofficePath,
		DockerImage: cfg.DockerImage,
		Trace:       DebugLog,
	}, nil
}

// Execute runs the root command and translates errors into process exit
// codes. Interrupt, termination, and hangup signals cancel the command
// context, which kills a still-running external converter and lets the
// temporary-directory guards unwind before exit.
func Execute(rootCmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(err)

		// Usage-level mistakes get the short usage text. Flag-parse errors
		// from cobra/pflag (unknown option, missing value) are not
		// CLIErrors, so they get the help pointer instead.
		var cliErr *model.CLIError
		if errors.As(err, &cliErr) {
			if cliErr.Kind == model.KindUsage {
				fmt.Fprint(os.Stderr, rootCmd.UsageString())
			}
		} else {
			fmt.Fprintf(os.Stderr, "Run '%s --help' for usage.\n", rootCmd.Name())
		}
		os.Exit(1)
	}
}

// printError writes one error line to stderr. The "error:" prefix is
// colored red when stderr is an interactive terminal and plain otherwise,
// so logs and pipes never see escape codes.
func printError(err error) {
	fmt.Fprintf(os.Stderr, "%s %v\n", errorPrefix(), err)
}

// errorPrefix returns the severity prefix for stderr output.
func errorPrefix() string {
	if fi, err := os.Stderr.Stat(); err == nil && fi.Mode()&os.ModeCharDevice != 0 {
		return "\x1b[31merror:\x1b[0m"
	}
	return "error:"
}

// DebugLog prints a trace line to stderr when --debug is set.
func DebugLog(format string, args ...interface{}) {
	if debug {
		fmt.Fprintf(os.Stderr, "[debug] "+format+"\n", args...)
	}
}
