package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sevnet/sevnet-go/internal/api"
	"github.com/sevnet/sevnet-go/internal/conf"
	"github.com/sevnet/sevnet-go/internal/datastore"
	"github.com/sevnet/sevnet-go/internal/logging"
	"github.com/sevnet/sevnet-go/internal/mqtt"
	"github.com/sevnet/sevnet-go/internal/observability"
	"github.com/sevnet/sevnet-go/internal/sevnet"
)

// Command creates the serve command which runs the HTTP classification API.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the classification HTTP API",
		Long:  "Start an HTTP server that accepts image uploads and returns damage severity classifications.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), settings)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the serve command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVarP(&settings.Serve.Port, "port", "p", viper.GetString("serve.port"), "Port to listen on")
	cmd.Flags().BoolVar(&settings.Serve.MQTT.Enabled, "mqtt", viper.GetBool("serve.mqtt.enabled"), "Publish classification results to MQTT")
	cmd.Flags().StringVar(&settings.Serve.MQTT.Broker, "broker", viper.GetString("serve.mqtt.broker"), "MQTT broker URL")
	cmd.Flags().StringVar(&settings.Serve.MQTT.Topic, "topic", viper.GetString("serve.mqtt.topic"), "MQTT topic for classification results")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}

func runServe(ctx context.Context, settings *conf.Settings) error {
	logger := logging.ForService("serve")

	sn, err := sevnet.NewSevNet(settings)
	if err != nil {
		return fmt.Errorf("failed to initialize model: %w", err)
	}
	defer sn.Delete()

	metrics, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	metrics.SevNet.ModelLoadedGauge.Set(1)

	ds := datastore.New(settings)
	if ds != nil {
		if err := ds.Open(); err != nil {
			return fmt.Errorf("failed to open output database: %w", err)
		}
		defer func() {
			if err := ds.Close(); err != nil {
				logger.Error("Failed to close database", "error", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var mqttClient mqtt.Client
	if settings.Serve.MQTT.Enabled {
		mqttClient = mqtt.NewClient(settings)
		if err := mqttClient.Connect(ctx); err != nil {
			// Publishing is best effort, the client reconnects on its own.
			logger.Warn("Initial MQTT connection failed", "broker", settings.Serve.MQTT.Broker, "error", err)
		}
		defer mqttClient.Disconnect()
	}

	controller := api.New(settings, sn, ds, metrics, mqttClient)
	return controller.Start(ctx)
}
