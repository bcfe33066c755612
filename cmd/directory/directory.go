package directory

import (
	"github.com/spf13/cobra"

	"github.com/sevnet/sevnet-go/internal/analysis"
	"github.com/sevnet/sevnet-go/internal/conf"
)

// Command creates a new cobra.Command for directory analysis.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "directory [path]",
		Short: "Classify all *.jpg files in a directory",
		Long:  "Provide a directory path to classify all JPEG images within it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return analysis.DirectoryAnalysis(cmd.Context(), settings, args[0])
		},
	}

	return cmd
}
