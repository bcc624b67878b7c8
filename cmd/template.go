package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/leadimport-cli/internal/importer"
)

var templateOutPath string

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Write a sample import CSV",
	Long:  "Writes a CSV with the recognized headers and example rows, ready to fill in and import.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if templateOutPath == "" {
			_, err := fmt.Fprint(os.Stdout, importer.SampleCSV)
			return err
		}

		if err := importer.WriteSampleCSV(templateOutPath); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Sample CSV written to %s\n", templateOutPath)
		return nil
	},
}

func init() {
	templateCmd.Flags().StringVarP(&templateOutPath, "out", "o", "", "output path (default stdout)")
	rootCmd.AddCommand(templateCmd)
}
