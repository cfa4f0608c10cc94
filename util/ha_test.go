package util

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	MQTT "github.com/eclipse/paho.mqtt.golang"
)

func TestConstructHAAdvertisement(t *testing.T) {
	freshConfig(t)
	Config.Set("id_base", "meetdeck")
	Config.Set("state_prefix", "meetdeck")
	sensor := HASensor{Name: "mic_muted", StateTopic: "meetdeck/mic_muted", Icon: "mdi:microphone-off"}

	advertisement := ConstructHAAdvertisement(sensor)

	if advertisement.Name != sensor.Name {
		t.Errorf("Name = %s, expected %s", advertisement.Name, sensor.Name)
	}
	if advertisement.StateTopic != sensor.StateTopic {
		t.Errorf("StateTopic = %s, expected %s", advertisement.StateTopic, sensor.StateTopic)
	}
	if advertisement.PayloadOn != "true" || advertisement.PayloadOff != "false" {
		t.Errorf("payloads = %s/%s, expected true/false", advertisement.PayloadOn, advertisement.PayloadOff)
	}
	if advertisement.Platform != "binary_sensor" {
		t.Errorf("Platform = %s, expected 'binary_sensor'", advertisement.Platform)
	}
	if advertisement.UniqueID != "meetdeck-mic_muted" {
		t.Errorf("UniqueID = %s, expected meetdeck-mic_muted", advertisement.UniqueID)
	}
	if advertisement.Icon != sensor.Icon {
		t.Errorf("Icon = %s, expected %s", advertisement.Icon, sensor.Icon)
	}

	if len(advertisement.HAAvdvertisementAvailability) != 1 {
		t.Fatalf("Expected 1 availability item, got %d", len(advertisement.HAAvdvertisementAvailability))
	}
	avail := advertisement.HAAvdvertisementAvailability[0]
	if avail.Topic != "meetdeck/online" {
		t.Errorf("Availability topic = %s, expected 'meetdeck/online'", avail.Topic)
	}
	if avail.PayloadAvailable != "online" || avail.PayloadNotAvailable != "offline" {
		t.Errorf("availability payloads = %s/%s", avail.PayloadAvailable, avail.PayloadNotAvailable)
	}

	if advertisement.Device.Name != "meetdeck" || len(advertisement.Device.Identifiers) != 1 {
		t.Errorf("Device = %+v, expected meetdeck", advertisement.Device)
	}
}

func TestHAAdvertisement_ToJson(t *testing.T) {
	freshConfig(t)
	Config.Set("id_base", "meetdeck")
	plain := ConstructHAAdvertisement(HASensor{Name: "hand_raised", StateTopic: "meetdeck/hand_raised"})
	occupancy := ConstructHAAdvertisement(HASensor{Name: "in_meeting", StateTopic: "meetdeck/in_meeting", DeviceClass: "occupancy"})

	tests := []struct {
		name        string
		ad          HAAdvertisement
		deviceClass bool
	}{
		{"no device class", plain, false},
		{"occupancy", occupancy, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := tt.ad.ToJson()
			var decoded map[string]interface{}
			if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
				t.Fatalf("ToJson produced invalid JSON: %v", err)
			}
			for _, key := range []string{"availability", "device", "uniq_id", "state_topic", "platform"} {
				if _, ok := decoded[key]; !ok {
					t.Errorf("JSON missing %s: %s", key, raw)
				}
			}
			if _, ok := decoded["device_class"]; ok != tt.deviceClass {
				t.Errorf("device_class present = %v, expected %v", ok, tt.deviceClass)
			}
		})
	}
}

func TestAdvertiseHA(t *testing.T) {
	freshConfig(t)
	Config.Set("id_base", "meetdeck")
	mockClient := &MockMQTTClient{}
	sensors := []HASensor{
		{Name: "in_meeting", StateTopic: "meetdeck/in_meeting", DeviceClass: "occupancy"},
		{Name: "mic_muted", StateTopic: "meetdeck/mic_muted"},
		{Name: "skipped"},
	}

	if err := AdvertiseHA(sensors, mockClient); err != nil {
		t.Fatalf("AdvertiseHA: %v", err)
	}
	if len(mockClient.publishCalls) != 2 {
		t.Fatalf("Expected 2 publish calls, got %d", len(mockClient.publishCalls))
	}

	call := mockClient.publishCalls[0]
	if call.Topic != "homeassistant/binary_sensor/meetdeck/in_meeting/config" {
		t.Errorf("topic = %s", call.Topic)
	}
	if !call.Retained {
		t.Error("discovery config should be retained")
	}
	if payload, _ := call.Payload.(string); !strings.Contains(payload, `"state_topic":"meetdeck/in_meeting"`) {
		t.Errorf("payload = %v", call.Payload)
	}
}

type failingClient struct {
	MockMQTTClient
}

func (f *failingClient) Publish(topic string, qos byte, retained bool, payload interface{}) MQTT.Token {
	return &MockToken{err: errors.New("broker gone")}
}

func TestAdvertiseHAError(t *testing.T) {
	err := AdvertiseHA([]HASensor{{Name: "in_meeting", StateTopic: "meetdeck/in_meeting"}}, &failingClient{})
	if err == nil || !strings.Contains(err.Error(), "in_meeting") {
		t.Errorf("expected a wrapped publish error, got %v", err)
	}
}
