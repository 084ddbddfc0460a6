package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"invoicer/internal/logger"
	"invoicer/pkg/models"
)

var renderCmd = &cobra.Command{
	Use:   "render [invoice-file]",
	Short: "Render an invoice record as PDF",
	Long: `Render an existing invoice record ({"factuur": ...}) as an A4 PDF.

The seller block is taken from the company section of the configuration.`,
	Example: `  invoicer render generated_invoices/FACT-1001.json
  invoicer render FACT-1001.json -o /tmp/factuur.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringP("output", "o", "", "PDF output path (default: input path with .pdf)")
}

func runRender(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("render")
	inputPath := args[0]

	outputPath, _ := cmd.Flags().GetString("output")
	if outputPath == "" {
		outputPath = strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".pdf"
	}

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read invoice file: %w", err)
	}
	inv, err := models.Decode(data)
	if err != nil {
		return err
	}

	return renderPDF(cmd.Context(), inv, outputPath, log)
}
