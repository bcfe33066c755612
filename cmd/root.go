package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sevnet/sevnet-go/cmd/benchmark"
	"github.com/sevnet/sevnet-go/cmd/directory"
	"github.com/sevnet/sevnet-go/cmd/file"
	"github.com/sevnet/sevnet-go/cmd/serve"
	"github.com/sevnet/sevnet-go/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sevnet",
		Short: "SevNet-Go CLI",
		Long:  "SevNet-Go classifies damage severity in photos using a TensorFlow Lite model.",
	}

	// Set up the global flags for the root command.
	if err := setupFlags(rootCmd, settings); err != nil {
		cobra.CheckErr(err)
	}

	subcommands := []*cobra.Command{
		file.Command(settings),
		directory.Command(settings),
		serve.Command(settings),
		benchmark.Command(settings),
	}

	rootCmd.AddCommand(subcommands...)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := cmd.Flags().Parse(args); err != nil {
			return err
		}
		return conf.ValidateSettings(settings)
	}

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVarP(&settings.SevNet.ModelPath, "model", "m", viper.GetString("sevnet.modelpath"), "Path to an external model file")
	rootCmd.PersistentFlags().StringVar(&settings.SevNet.LabelPath, "labels", viper.GetString("sevnet.labelpath"), "Path to an external label file")
	rootCmd.PersistentFlags().IntVarP(&settings.SevNet.Threads, "threads", "j", viper.GetInt("sevnet.threads"), "Number of CPU threads to use for inference (0 for auto)")
	rootCmd.PersistentFlags().BoolVar(&settings.SevNet.UseXNNPACK, "xnnpack", viper.GetBool("sevnet.usexnnpack"), "Use XNNPACK delegate for inference")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
