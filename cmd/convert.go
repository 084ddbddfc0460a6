package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"invoicer/internal/invoice"
	"invoicer/internal/logger"
	"invoicer/internal/order"
	"invoicer/internal/render"
	"invoicer/pkg/models"
)

var convertCmd = &cobra.Command{
	Use:   "convert [order-file]",
	Short: "Convert one order record into an invoice record",
	Long: `Convert a single order record into an invoice record.

The record is checked structurally, every line is computed with exact decimal
arithmetic (VAT amounts on an exact half cent round down) and the totals are
summed from the lines. Totals supplied on a {"factuur": ...} record are only
compared against the computed ones; differences are reported as warnings.`,
	Example: `  # Print the invoice record to stdout
  invoicer convert order-1001.json

  # Write the invoice record and a PDF
  invoicer convert order-1001.json -o FACT-1001.json --pdf FACT-1001.pdf

  # Use a different invoice number prefix
  invoicer convert order-1001.json --prefix INV-`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	convertCmd.Flags().String("pdf", "", "Also render the invoice to this PDF file")
	convertCmd.Flags().String("prefix", "", "Invoice number prefix (default from config)")
}

func runConvert(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("convert")
	cfg := appConfig()

	outputPath, _ := cmd.Flags().GetString("output")
	pdfPath, _ := cmd.Flags().GetString("pdf")
	prefix := stringFlag(cmd, "prefix", cfg.InvoicePrefix)
	inputPath := args[0]

	log.Info().
		Str("file", inputPath).
		Str("output", outputPath).
		Str("pdf", pdfPath).
		Msg("Starting conversion")

	raw, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read order file: %w", err)
	}

	if err := order.Check(raw); err != nil {
		return handleInvoiceError(err, log)
	}

	startTime := time.Now()
	outcome, err := invoice.NewAssembler(prefix).Process(raw)
	if err != nil {
		return handleInvoiceError(err, log)
	}
	inv := outcome.Invoice

	for _, w := range outcome.Warnings {
		log.Warn().Str("invoice_number", inv.InvoiceNumber).Msg(w)
	}

	log.Info().
		Str("invoice_number", inv.InvoiceNumber).
		Str("total_incl", inv.Totals.InclTax.String()).
		Dur("duration", time.Since(startTime)).
		Msg("Invoice assembled")

	data, err := models.Encode(inv)
	if err != nil {
		return err
	}
	if err := writeOutput(cmd, data, outputPath, log); err != nil {
		return err
	}

	if pdfPath != "" {
		return renderPDF(cmd.Context(), inv, pdfPath, log)
	}
	return nil
}

// writeOutput writes data to path, or to the command's stdout when path is empty.
func writeOutput(cmd *cobra.Command, data []byte, path string, log zerolog.Logger) error {
	if path == "" {
		if _, err := cmd.OutOrStdout().Write(append(data, '\n')); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Error().
			Err(err).
			Str("output_file", path).
			Msg("Failed to write output file")
		return fmt.Errorf("failed to write output file: %w", err)
	}

	log.Info().
		Str("output_file", path).
		Int("bytes", len(data)).
		Msg("Invoice written to file")
	return nil
}

func renderPDF(ctx context.Context, inv *models.Invoice, path string, log zerolog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	pdf, err := render.NewPDFRenderer(appConfig().Company()).Render(ctx, inv)
	if err != nil {
		return fmt.Errorf("failed to render PDF: %w", err)
	}
	if err := os.WriteFile(path, pdf, 0o644); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}

	log.Info().
		Str("pdf_file", path).
		Int("bytes", len(pdf)).
		Msg("Invoice PDF written")
	return nil
}

// handleInvoiceError provides user-friendly error messages for conversion failures
func handleInvoiceError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Invoice conversion failed")

	switch {
	case errors.Is(err, invoice.ErrStructuralValidation):
		return fmt.Errorf("record is not a valid order or factuur record: %w", err)
	case errors.Is(err, invoice.ErrMissingField):
		return fmt.Errorf("record is missing a required field: %w", err)
	case errors.Is(err, invoice.ErrDateParse):
		return fmt.Errorf("dates must be written as dd-mm-yyyy: %w", err)
	case errors.Is(err, invoice.ErrPaymentTermParse):
		return fmt.Errorf("payment terms must start with a number of days, e.g. \"30-dagen\": %w", err)
	case errors.Is(err, invoice.ErrArithmeticPrecondition):
		return fmt.Errorf("quantities must be positive, prices and VAT non-negative, rates 0..100: %w", err)
	default:
		return fmt.Errorf("invoice conversion failed: %w", err)
	}
}
