package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/robjsim/excel-csv-converter/internal/batch"
	"github.com/robjsim/excel-csv-converter/internal/codec"
	"github.com/robjsim/excel-csv-converter/internal/config"
	"github.com/robjsim/excel-csv-converter/internal/converter"
	"github.com/robjsim/excel-csv-converter/internal/log"
	"github.com/robjsim/excel-csv-converter/internal/types"
	"github.com/robjsim/excel-csv-converter/internal/ui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagTo      string
	flagOut     string
	flagWorkers int
	flagConfig  string
	flagVerbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "excel-csv-converter [paths...]",
		Short: "Convert between Excel workbooks and CSV files, one file or a whole folder",
		Long: `Converts .xlsx/.xls/.xlsm workbooks to CSV and CSV files to .xlsx,
individually or in batch over folders. One bad file never stops the
rest of a batch. Run without arguments for the interactive picker.`,
		Version: fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		Args:    cobra.ArbitraryArgs,
		RunE:    run,
	}

	rootCmd.Flags().StringVar(&flagTo, "to", "", "target format: csv or xlsx (inferred from a single file argument when omitted)")
	rootCmd.Flags().StringVarP(&flagOut, "out", "o", "", "destination root (default: next to each source)")
	rootCmd.Flags().IntVar(&flagWorkers, "workers", 0, "parallel conversions (default: config, then one per CPU)")
	rootCmd.Flags().StringVar(&flagConfig, "config", "converter.toml", "settings file")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagWorkers > 0 {
		cfg.Workers = flagWorkers
	}

	conv := converter.New(codec.CSVOptions{
		WriteBOM: cfg.CSV.WriteBOM,
		CRLF:     cfg.CSV.CRLF,
	})

	if len(args) == 0 {
		// Interactive mode keeps the terminal for the UI.
		runner := batch.NewRunner(conv, zap.NewNop(), cfg.Workers)
		p := tea.NewProgram(ui.InitialModel(runner), tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return err
		}
		return nil
	}

	direction, err := resolveDirection(flagTo, args)
	if err != nil {
		return err
	}

	logger := log.New(flagVerbose)
	defer logger.Sync()

	runner := batch.NewRunner(conv, logger, cfg.Workers)
	results, err := runner.Run(context.Background(), args, direction, outputRoot(args))
	if err != nil {
		return err
	}

	succeeded, failed := batch.Summarize(results)
	fmt.Fprintf(cmd.OutOrStdout(), "Converted: %d files, failed: %d\n", succeeded, failed)
	if failed > 0 {
		cmd.SilenceUsage = true
		return fmt.Errorf("%d of %d conversions failed", failed, len(results))
	}
	return nil
}

// resolveDirection maps --to onto a direction, or infers one from a
// lone file argument's extension the way the original tool did.
func resolveDirection(to string, args []string) (types.Direction, error) {
	switch strings.ToLower(to) {
	case "csv":
		return types.SpreadsheetToCSV, nil
	case "xlsx":
		return types.CSVToSpreadsheet, nil
	case "":
	default:
		return 0, fmt.Errorf("unknown target format %q (want csv or xlsx)", to)
	}

	if len(args) == 1 {
		if converter.SourceAccepted(args[0], types.SpreadsheetToCSV) {
			return types.SpreadsheetToCSV, nil
		}
		if converter.SourceAccepted(args[0], types.CSVToSpreadsheet) {
			return types.CSVToSpreadsheet, nil
		}
		return 0, fmt.Errorf("unsupported file type %q", filepath.Ext(args[0]))
	}
	return 0, fmt.Errorf("--to is required when converting multiple paths")
}

// outputRoot picks the destination root when --out is not given:
// beside a single file, inside a single folder, else the working
// directory.
func outputRoot(args []string) string {
	if flagOut != "" {
		return flagOut
	}
	if len(args) == 1 {
		info, err := os.Stat(args[0])
		if err == nil && info.IsDir() {
			return args[0]
		}
		return filepath.Dir(args[0])
	}
	return "."
}
