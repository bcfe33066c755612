// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "SevNet-Go")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "sevnet.log")
	viper.SetDefault("main.log.rotation", RotationDaily)
	viper.SetDefault("main.log.maxsize", 1048576)

	viper.SetDefault("sevnet.debug", false)
	viper.SetDefault("sevnet.modelpath", "")
	viper.SetDefault("sevnet.labelpath", "")
	viper.SetDefault("sevnet.threads", 0)
	viper.SetDefault("sevnet.inputsize", 256)
	viper.SetDefault("sevnet.cropsize", 224)
	viper.SetDefault("sevnet.usexnnpack", false)

	viper.SetDefault("serve.port", "8080")
	viper.SetDefault("serve.mqtt.enabled", false)
	viper.SetDefault("serve.mqtt.broker", "tcp://localhost:1883")
	viper.SetDefault("serve.mqtt.topic", "sevnet/classifications")
	viper.SetDefault("serve.mqtt.username", "")
	viper.SetDefault("serve.mqtt.password", "")
	viper.SetDefault("serve.mqtt.retain", false)

	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "sevnet.db")
	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "sevnet")
	viper.SetDefault("output.mysql.password", "sevnet")
	viper.SetDefault("output.mysql.database", "sevnet")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")

	viper.SetDefault("sentry.enabled", false)
	viper.SetDefault("sentry.dsn", "")
}
