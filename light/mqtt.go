package light

import (
	"errors"
	"fmt"

	MQTT "github.com/eclipse/paho.mqtt.golang"

	. "github.com/elijahnyp/meetdeck/util"
)

// MQTTLight publishes on/off payloads to a command topic, the way
// zigbee2mqtt and Home Assistant MQTT lights expect.
type MQTTLight struct {
	cfg    Settings
	client func() MQTT.Client
}

func NewMQTTLight(cfg Settings, client func() MQTT.Client) (*MQTTLight, error) {
	if cfg.MQTT.Topic == "" {
		return nil, errors.New("mqtt light needs a topic")
	}
	if cfg.MQTT.PayloadOn == "" {
		cfg.MQTT.PayloadOn = "ON"
	}
	if cfg.MQTT.PayloadOff == "" {
		cfg.MQTT.PayloadOff = "OFF"
	}
	return &MQTTLight{cfg: cfg, client: client}, nil
}

func (m *MQTTLight) Auto() bool         { return m.cfg.Auto }
func (m *MQTTLight) Controllable() bool { return m.cfg.Control }

func (m *MQTTLight) SetOn(on bool) error {
	c := m.client()
	if c == nil || !c.IsConnected() {
		return errors.New("mqtt not connected")
	}
	payload := m.cfg.MQTT.PayloadOff
	if on {
		payload = m.cfg.MQTT.PayloadOn
	}
	Logger.Debug().Msgf("light: %s <- %s", m.cfg.MQTT.Topic, payload)
	if token := c.Publish(m.cfg.MQTT.Topic, 0, m.cfg.MQTT.Retained, payload); token.Wait() && token.Error() != nil {
		return fmt.Errorf("publish light command: %w", token.Error())
	}
	return nil
}
