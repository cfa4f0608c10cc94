package main

import (
	"context"
	"strconv"
	"sync"
	"time"

	MQTT "github.com/eclipse/paho.mqtt.golang"

	"github.com/elijahnyp/meetdeck/state"
	. "github.com/elijahnyp/meetdeck/util"
)

// statePublisher mirrors tracker snapshots onto retained MQTT topics under
// the state prefix, publishing only values that changed.
type statePublisher struct {
	client func() MQTT.Client
	prefix func() string

	mu   sync.Mutex
	last state.Snapshot
	sent map[string]string
}

func newStatePublisher(client func() MQTT.Client, prefix func() string) *statePublisher {
	return &statePublisher{
		client: client,
		prefix: prefix,
		sent:   make(map[string]string),
	}
}

func stateValues(s state.Snapshot) map[string]string {
	return map[string]string{
		"room":        s.Room,
		"in_meeting":  strconv.FormatBool(s.InMeeting()),
		"mic_muted":   strconv.FormatBool(s.Features.MicMuted),
		"cam_muted":   strconv.FormatBool(s.Features.CamMuted),
		"hand_raised": strconv.FormatBool(s.Features.HandRaised),
		"captions_on": strconv.FormatBool(s.Features.CaptionsOn),
		"presenting":  strconv.FormatBool(s.Features.Presenting),
		"side_panel":  s.Features.SelectedTab.String(),
	}
}

// haSensors are the binary sensors advertised for Home Assistant discovery.
func haSensors(prefix string) []HASensor {
	return []HASensor{
		{Name: "in_meeting", StateTopic: prefix + "/in_meeting", DeviceClass: "occupancy"},
		{Name: "mic_muted", StateTopic: prefix + "/mic_muted", Icon: "mdi:microphone-off"},
		{Name: "cam_muted", StateTopic: prefix + "/cam_muted", Icon: "mdi:video-off"},
		{Name: "hand_raised", StateTopic: prefix + "/hand_raised", Icon: "mdi:hand-back-right"},
	}
}

func (p *statePublisher) Publish(s state.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = s
	p.flush()
}

// Republish forgets what was sent and publishes the last snapshot again, for
// a fresh broker connection.
func (p *statePublisher) Republish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = make(map[string]string)
	p.flush()
}

func (p *statePublisher) flush() {
	c := p.client()
	if c == nil || !c.IsConnected() {
		return
	}
	prefix := p.prefix()
	for name, value := range stateValues(p.last) {
		topic := prefix + "/" + name
		if p.sent[topic] == value {
			continue
		}
		token := c.Publish(topic, 0, true, value)
		// the tracker loop calls in here; do not block it on the broker
		go func(topic string, token MQTT.Token) {
			if token.WaitTimeout(5*time.Second) && token.Error() != nil {
				Logger.Warn().Msgf("Error publishing %s: %v", topic, token.Error())
			}
		}(topic, token)
		p.sent[topic] = value
	}
}

func (p *statePublisher) advertise(client MQTT.Client) {
	if !Config.GetBool("ha_discovery") {
		return
	}
	Logger.Debug().Msg("Advertising Home Assistant discovery messages")
	if err := AdvertiseHA(haSensors(p.prefix()), client); err != nil {
		Logger.Error().Msgf("Error advertising to Home Assistant: %v", err)
	}
}

// Run pings the online topic every 10 seconds and re-advertises discovery
// every 5 minutes until ctx is done.
func (p *statePublisher) Run(ctx context.Context) error {
	ping := time.NewTicker(10 * time.Second)
	defer ping.Stop()
	advertise := time.NewTicker(5 * time.Minute)
	defer advertise.Stop()

	for {
		select {
		case <-ctx.Done():
			if c := p.client(); c != nil && c.IsConnected() {
				c.Publish(OnlineTopic(), 0, true, "offline").WaitTimeout(time.Second)
			}
			return nil
		case <-ping.C:
			if c := p.client(); c != nil && c.IsConnected() {
				if token := c.Publish(OnlineTopic(), 0, true, "online"); token.Wait() && token.Error() != nil {
					Logger.Error().Msgf("Error publishing online message: %v", token.Error())
				}
			}
		case <-advertise.C:
			if c := p.client(); c != nil && c.IsConnected() {
				p.advertise(c)
			}
		}
	}
}
