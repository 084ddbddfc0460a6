package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"invoicer/internal/batch"
	"invoicer/internal/invoice"
	"invoicer/internal/logger"
	"invoicer/internal/render"
	"invoicer/internal/sheets"
)

var batchCmd = &cobra.Command{
	Use:   "batch [input-dir]",
	Short: "Convert every order record in a directory",
	Long: `Convert all *.json order records directly inside a directory.

Every record is processed independently by a pool of workers. A converted
record is written to the output directory as <invoice number>.json (and .pdf
with --pdf) before its input is moved to the processed directory. A record
that fails is moved to the error directory next to a <name>.error.txt file
describing the failure; the rest of the batch continues.

With --sheet-url every run is appended to an invoice register in Google
Sheets. Credentials come from GOOGLE_APPLICATION_CREDENTIALS or
GOOGLE_CREDENTIALS.

Directories, worker count and prefix default to the configuration.`,
	Example: `  # Convert everything in ./orders using configured directories
  invoicer batch orders

  # Dry run: assemble only, write and move nothing
  invoicer batch orders --dry-run

  # Render PDFs with 4 workers
  invoicer batch orders --pdf --workers 4`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	addPipelineFlags(batchCmd)
	batchCmd.Flags().Bool("dry-run", false, "Assemble records but don't write or move any files")
}

// addPipelineFlags registers the flags shared by batch and watch.
func addPipelineFlags(c *cobra.Command) {
	c.Flags().String("output", "", "Directory for invoice records")
	c.Flags().String("processed", "", "Directory for successfully processed inputs")
	c.Flags().String("errors", "", "Directory for failed inputs")
	c.Flags().String("prefix", "", "Invoice number prefix")
	c.Flags().Bool("pdf", false, "Also render every invoice as PDF")
	c.Flags().Int("workers", 0, "Number of parallel workers")
	c.Flags().String("sheet-url", "", "Append results to this Google Sheet")
}

// newRunner builds the processing pipeline from flags and configuration and
// returns it together with the input directory.
func newRunner(ctx context.Context, cmd *cobra.Command, args []string, dryRun bool, log zerolog.Logger) (*batch.Runner, string, error) {
	cfg := appConfig()

	inputDir := cfg.InputDir
	if len(args) > 0 {
		inputDir = args[0]
	}

	opts := batch.Options{
		OutputDir:    stringFlag(cmd, "output", cfg.OutputDir),
		ProcessedDir: stringFlag(cmd, "processed", cfg.ProcessedDir),
		ErrorDir:     stringFlag(cmd, "errors", cfg.ErrorDir),
		DryRun:       dryRun,
	}

	var renderer render.Renderer
	if boolFlag(cmd, "pdf", cfg.RenderPDF) {
		renderer = render.NewPDFRenderer(cfg.Company())
	}

	assembler := invoice.NewAssembler(stringFlag(cmd, "prefix", cfg.InvoicePrefix))
	runner := batch.NewRunner(batch.NewProcessor(opts, assembler, renderer), intFlag(cmd, "workers", cfg.Workers))

	if sheetURL := stringFlag(cmd, "sheet-url", cfg.GoogleSheetURL); sheetURL != "" && !dryRun {
		svc, err := sheets.NewSheetsService(ctx, sheetURL, cfg.GoogleSheetWorksheet)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create Google Sheets service: %w", err)
		}
		runner.WithExporter(svc)
	}

	log.Info().
		Str("input", inputDir).
		Str("output", opts.OutputDir).
		Str("processed", opts.ProcessedDir).
		Str("errors", opts.ErrorDir).
		Bool("pdf", renderer != nil).
		Bool("dry_run", dryRun).
		Msg("Pipeline configured")

	return runner, inputDir, nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("batch")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	out := cmd.OutOrStdout()

	ctx, cancel := createContext(cmd.Context(), 0, log)
	defer cancel()

	runner, inputDir, err := newRunner(ctx, cmd, args, dryRun, log)
	if err != nil {
		return err
	}

	files, err := batch.FindInputFiles(inputDir)
	if err != nil {
		return fmt.Errorf("failed to find input files: %w", err)
	}

	fmt.Fprintln(out, strings.Repeat("=", 80))
	fmt.Fprintln(out, "                           BATCH CONVERSION")
	fmt.Fprintln(out, strings.Repeat("=", 80))
	fmt.Fprintf(out, "Map: %s\n", inputDir)
	if dryRun {
		fmt.Fprintln(out, "Modus: Dry Run (geen bestanden geschreven of verplaatst)")
	}
	fmt.Fprintln(out)

	if len(files) == 0 {
		fmt.Fprintln(out, "Geen orderbestanden gevonden.")
		return nil
	}

	runner.Progress = printProgress(cmd)

	summary, err := runner.RunFiles(ctx, files)
	if summary != nil {
		printSummary(cmd, summary)
	}
	if err != nil {
		return err
	}
	if summary.Error > 0 {
		return fmt.Errorf("%d of %d records failed", summary.Error, summary.Total)
	}
	return nil
}

func printProgress(cmd *cobra.Command) func(done, total int, r batch.Result) {
	out := cmd.OutOrStdout()
	return func(done, total int, r batch.Result) {
		fmt.Fprintf(out, "[%d/%d] %s - %s", done, total, r.Filename, getStatusEmoji(string(r.Status)))
		switch {
		case r.Err != nil:
			fmt.Fprintf(out, " (%s)", r.Err.Error())
		case r.Invoice != nil:
			fmt.Fprintf(out, " (%s, %s)", r.Invoice.InvoiceNumber, render.FormatEuro(r.Invoice.Totals.InclTax))
		}
		fmt.Fprintln(out)
	}
}

func printSummary(cmd *cobra.Command, s *batch.Summary) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("=", 50))
	fmt.Fprintln(out, "                 RESULTAAT")
	fmt.Fprintln(out, strings.Repeat("=", 50))
	fmt.Fprintf(out, "Geslaagd: %d\n", s.Success)
	if s.Warning > 0 {
		fmt.Fprintf(out, "Met waarschuwingen: %d\n", s.Warning)
	}
	if s.Error > 0 {
		fmt.Fprintf(out, "Mislukt: %d\n", s.Error)
	}
	if s.Skipped > 0 {
		fmt.Fprintf(out, "Overgeslagen: %d\n", s.Skipped)
	}
	fmt.Fprintf(out, "Duur: %s\n", s.Duration.Round(time.Millisecond))
	fmt.Fprintln(out, strings.Repeat("=", 80))
}
