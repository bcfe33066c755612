package mqtt

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevnet/sevnet-go/internal/conf"
	"github.com/sevnet/sevnet-go/internal/errors"
)

func testSettings() *conf.Settings {
	return &conf.Settings{
		Main: conf.MainSettings{Name: "test-node"},
		Serve: conf.ServeSettings{
			MQTT: conf.MQTTSettings{
				Enabled:  true,
				Broker:   "tcp://localhost:1883",
				Topic:    "sevnet/classifications",
				Username: "user",
				Password: "pass",
				Retain:   true,
			},
		},
	}
}

func TestNewClientConfig(t *testing.T) {
	t.Parallel()

	c, ok := NewClient(testSettings()).(*client)
	require.True(t, ok)

	assert.Equal(t, "tcp://localhost:1883", c.config.Broker)
	assert.Equal(t, "test-node", c.config.ClientID)
	assert.Equal(t, "sevnet/classifications", c.config.Topic)
	assert.True(t, c.config.Retain)
	assert.False(t, c.IsConnected())
}

func TestPublishWithoutConnection(t *testing.T) {
	t.Parallel()

	c := NewClient(testSettings())

	err := c.Publish(context.Background(), "sevnet/classifications", "{}")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryMQTTPublish))
}

func TestConnectInvalidBrokerURL(t *testing.T) {
	t.Parallel()

	settings := testSettings()
	settings.Serve.MQTT.Broker = "://not-a-url"

	c := NewClient(settings)
	err := c.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryMQTTConnection))
}

func TestConnectCooldown(t *testing.T) {
	t.Parallel()

	settings := testSettings()
	settings.Serve.MQTT.Broker = "://not-a-url"

	c, ok := NewClient(settings).(*client)
	require.True(t, ok)

	_ = c.Connect(context.Background())

	// A second attempt inside the cooldown window is rejected before any
	// network activity.
	start := time.Now()
	err := c.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryMQTTConnection))
	assert.Less(t, time.Since(start), time.Second)
}
