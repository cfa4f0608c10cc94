// Package light connects the optional lighting integration: a Hue bridge or
// any light that takes on/off commands over MQTT.
package light

import (
	"fmt"
	"strings"

	MQTT "github.com/eclipse/paho.mqtt.golang"

	"github.com/elijahnyp/meetdeck/state"
)

type HueConfig struct {
	Host  string `mapstructure:"host"`
	User  string `mapstructure:"user"`
	Light int    `mapstructure:"light"`
	Group int    `mapstructure:"group"`
}

type MQTTConfig struct {
	Topic      string `mapstructure:"topic"`
	PayloadOn  string `mapstructure:"payload_on"`
	PayloadOff string `mapstructure:"payload_off"`
	Retained   bool   `mapstructure:"retained"`
}

type Settings struct {
	Backend string     `mapstructure:"backend"`
	Auto    bool       `mapstructure:"auto"`
	Control bool       `mapstructure:"control"`
	Hue     HueConfig  `mapstructure:"hue"`
	MQTT    MQTTConfig `mapstructure:"mqtt"`
}

// New builds the configured light. It returns nil when no backend is set.
func New(cfg Settings, client func() MQTT.Client) (state.Light, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "none":
		return nil, nil
	case "hue":
		h, err := NewHue(cfg)
		if err != nil {
			return nil, err
		}
		return h, nil
	case "mqtt":
		m, err := NewMQTTLight(cfg, client)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown light backend %q", cfg.Backend)
	}
}
