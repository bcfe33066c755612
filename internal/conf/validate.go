// conf/validate.go settings validation
package conf

import (
	"fmt"
	"strconv"
)

// ValidateSettings checks the loaded settings for values that would prevent
// the application from operating correctly.
func ValidateSettings(settings *Settings) error {
	if err := validateSevNetSettings(&settings.SevNet); err != nil {
		return err
	}
	if err := validateServeSettings(&settings.Serve); err != nil {
		return err
	}
	return validateOutputSettings(&settings.Output)
}

func validateSevNetSettings(s *SevNetSettings) error {
	if s.Threads < 0 {
		return fmt.Errorf("sevnet.threads must be 0 (auto) or positive, got %d", s.Threads)
	}
	if s.InputSize <= 0 {
		return fmt.Errorf("sevnet.inputsize must be positive, got %d", s.InputSize)
	}
	if s.CropSize <= 0 {
		return fmt.Errorf("sevnet.cropsize must be positive, got %d", s.CropSize)
	}
	if s.CropSize > s.InputSize {
		return fmt.Errorf("sevnet.cropsize (%d) must not exceed sevnet.inputsize (%d)", s.CropSize, s.InputSize)
	}
	return nil
}

func validateServeSettings(s *ServeSettings) error {
	if s.Port != "" {
		port, err := strconv.Atoi(s.Port)
		if err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("serve.port must be a valid port number, got %q", s.Port)
		}
	}
	if s.MQTT.Enabled && s.MQTT.Broker == "" {
		return fmt.Errorf("serve.mqtt.broker is required when MQTT is enabled")
	}
	if s.MQTT.Enabled && s.MQTT.Topic == "" {
		return fmt.Errorf("serve.mqtt.topic is required when MQTT is enabled")
	}
	return nil
}

func validateOutputSettings(s *OutputSettings) error {
	if s.SQLite.Enabled && s.SQLite.Path == "" {
		return fmt.Errorf("output.sqlite.path is required when SQLite output is enabled")
	}
	if s.MySQL.Enabled {
		if s.MySQL.Host == "" || s.MySQL.Database == "" {
			return fmt.Errorf("output.mysql.host and output.mysql.database are required when MySQL output is enabled")
		}
	}
	return nil
}
