package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alimgiray/repolens/internal/services"
	"github.com/alimgiray/repolens/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export <repository>",
	Short: "Write the stored report of a repository to a file",
	Long: `Export writes every stored aggregate of a repository as JSON, YAML or an
Excel workbook. JSON and YAML go to stdout unless --output is given.

Examples:
  repolens export octo/lens --format yaml
  repolens export octo/lens --format xlsx --output lens.xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", services.FormatJSON, "output format (json|yaml|xlsx)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file")
}

func runExport(cmd *cobra.Command, args []string) error {
	export, report, err := loadReport(cmd, args[0])
	if err != nil {
		return err
	}

	output := exportOutput
	if output == "" && exportFormat == services.FormatXLSX {
		output = reportFileName(report, exportFormat)
	}

	var w io.Writer = cmd.OutOrStdout()
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", output, err)
		}
		defer f.Close()
		w = f
	}

	if err := export.Write(w, report, exportFormat); err != nil {
		return err
	}
	if output != "" {
		logger.WithField("file", output).Info("Report exported")
	}
	return nil
}

// reportFileName derives "<owner>-<name>-report.<ext>" from the overview name
func reportFileName(r *services.Report, format string) string {
	return strings.ReplaceAll(r.Overview.Name, "/", "-") + "-report." + format
}
