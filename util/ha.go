package util

import (
	"encoding/json"
	"fmt"

	MQTT "github.com/eclipse/paho.mqtt.golang"
)

type HAAvdvertisementAvailability struct {
	Topic               string `json:"topic"`                 // : "meetdeck/online"
	PayloadAvailable    string `json:"payload_available"`     // : "online"
	PayloadNotAvailable string `json:"payload_not_available"` // : "offline"
}

type HADeviceSpec struct {
	Name        string   `json:"name"` // : "meetdeck"
	Identifiers []string `json:"ids"`  // : ["meetdeck"]
}

type HAAdvertisement struct { //nolint:govet // struct layout optimized for JSON field order
	HAAvdvertisementAvailability []HAAvdvertisementAvailability `json:"availability"`
	Device                       HADeviceSpec                   `json:"device"`
	UniqueID                     string                         `json:"uniq_id"`     // "meetdeck-mic_muted"
	Name                         string                         `json:"name"`        // : "mic_muted"
	StateTopic                   string                         `json:"state_topic"` // : "meetdeck/mic_muted"
	PayloadOn                    string                         `json:"payload_on"`
	PayloadOff                   string                         `json:"payload_off"`
	DeviceClass                  string                         `json:"device_class,omitempty"`
	Icon                         string                         `json:"icon,omitempty"`
	Platform                     string                         `json:"platform"`
	Qos                          int                            `json:"qos"`
}

// HASensor is one binary sensor the daemon exposes.
type HASensor struct {
	Name        string
	StateTopic  string
	DeviceClass string
	Icon        string
}

func (ha HAAdvertisement) ToJson() string {
	data, err := json.Marshal(ha)
	if err != nil {
		Logger.Error().Msgf("Error marshalling HAAdvertisement: %v", err)
		return ""
	}
	return string(data)
}

func ConstructHAAdvertisement(sensor HASensor) HAAdvertisement {
	device := Config.GetString("id_base")
	if device == "" {
		device = "meetdeck"
	}
	return HAAdvertisement{
		Name:       sensor.Name,
		StateTopic: sensor.StateTopic,
		PayloadOn:  "true",
		PayloadOff: "false",
		HAAvdvertisementAvailability: []HAAvdvertisementAvailability{
			{
				Topic:               OnlineTopic(),
				PayloadAvailable:    "online",
				PayloadNotAvailable: "offline",
			},
		},
		Qos:         0,
		UniqueID:    device + "-" + sensor.Name,
		DeviceClass: sensor.DeviceClass,
		Icon:        sensor.Icon,
		Platform:    "binary_sensor",
		Device: HADeviceSpec{
			Name:        device,
			Identifiers: []string{device},
		},
	}
}

// HAConfigTopic is the discovery topic for a sensor.
func HAConfigTopic(sensor HASensor) string {
	device := Config.GetString("id_base")
	if device == "" {
		device = "meetdeck"
	}
	return "homeassistant/binary_sensor/" + device + "/" + sensor.Name + "/config"
}

func AdvertiseHA(sensors []HASensor, client MQTT.Client) error {
	for _, sensor := range sensors {
		if sensor.StateTopic == "" {
			continue
		}
		ha := ConstructHAAdvertisement(sensor)
		if token := client.Publish(HAConfigTopic(sensor), 0, true, ha.ToJson()); token.Wait() && token.Error() != nil {
			return fmt.Errorf("advertising %s: %w", sensor.Name, token.Error())
		}
	}
	return nil
}
