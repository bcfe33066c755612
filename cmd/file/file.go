package file

import (
	"github.com/spf13/cobra"

	"github.com/sevnet/sevnet-go/internal/analysis"
	"github.com/sevnet/sevnet-go/internal/conf"
)

// Command creates a new file command for classifying a single image file.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "file [input.jpg]",
		Short: "Classify damage severity in an image file",
		Long:  "Classify a single JPEG image and print its damage severity.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return analysis.FileAnalysis(cmd.Context(), settings, args[0])
		},
	}

	return cmd
}
