package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"invoicer/internal/invoice"
	"invoicer/internal/logger"
	"invoicer/internal/order"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file...]",
	Short: "Check order records without converting them",
	Long: `Run the structural pre-flight check on one or more order records.

With --strict every record is also assembled in memory, which additionally
catches unparseable dates and payment terms and invalid amounts.`,
	Example: `  invoicer validate orders/*.json
  invoicer validate --strict order-1001.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().Bool("strict", false, "Also assemble each record")
}

func runValidate(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("validate")
	strict, _ := cmd.Flags().GetBool("strict")
	assembler := invoice.NewAssembler(appConfig().InvoicePrefix)
	out := cmd.OutOrStdout()

	invalid := 0
	for _, path := range args {
		shape, err := validateFile(path, strict, assembler)
		if err != nil {
			invalid++
			log.Debug().Err(err).Str("file", path).Msg("Record invalid")
			fmt.Fprintf(out, "%s %s: %v\n", getStatusEmoji("error"), path, err)
			continue
		}
		fmt.Fprintf(out, "%s %s (%s)\n", getStatusEmoji("success"), path, shape)
	}

	if invalid > 0 {
		return fmt.Errorf("%d of %d records invalid", invalid, len(args))
	}
	return nil
}

func validateFile(path string, strict bool, assembler *invoice.Assembler) (order.Shape, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return order.ShapeUnknown, err
	}
	if err := order.Check(raw); err != nil {
		return order.ShapeUnknown, err
	}
	if strict {
		if _, err := assembler.Assemble(raw); err != nil {
			return order.ShapeUnknown, err
		}
	}
	return order.Detect(raw), nil
}

// getStatusEmoji returns an emoji for the processing status
func getStatusEmoji(status string) string {
	switch status {
	case "success":
		return "✅"
	case "warning":
		return "⚠️"
	case "error":
		return "❌"
	case "skipped":
		return "⏭️"
	default:
		return "❓"
	}
}
