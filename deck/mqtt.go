package deck

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strconv"
	"strings"
	"sync/atomic"

	MQTT "github.com/eclipse/paho.mqtt.golang"

	. "github.com/elijahnyp/meetdeck/util"
)

// MQTTPanel talks to a panel bridged over MQTT:
//
//	<prefix>/status           online | offline (from the bridge)
//	<prefix>/key/<n>          pressed | released (from the bridge)
//	<prefix>/key/<n>/image    PNG payload (to the bridge)
//	<prefix>/clear            any payload (to the bridge)
type MQTTPanel struct {
	client  func() MQTT.Client
	prefix  string
	keySize int
	online  atomic.Bool
	keys    chan int
	// onOnline runs when the bridge reports it came (back) online
	onOnline func()
}

func NewMQTTPanel(client func() MQTT.Client, prefix string, keySize int) *MQTTPanel {
	return &MQTTPanel{
		client:  client,
		prefix:  strings.TrimSuffix(prefix, "/"),
		keySize: keySize,
		keys:    make(chan int, 16),
	}
}

// OnOnline sets fn to run whenever the bridge comes online. Call it before
// Subscribe.
func (p *MQTTPanel) OnOnline(fn func()) {
	p.onOnline = fn
}

// Subscribe registers the panel's topics with the shared MQTT client.
func (p *MQTTPanel) Subscribe() {
	RegisterMQTTSubscription(p.prefix+"/status", p.handleStatus)
	RegisterMQTTSubscription(p.prefix+"/key/+", p.handleKey)
}

func (p *MQTTPanel) Connected() bool {
	c := p.client()
	return c != nil && c.IsConnected() && p.online.Load()
}

func (p *MQTTPanel) KeySize() int {
	return p.keySize
}

func (p *MQTTPanel) Keys() <-chan int {
	return p.keys
}

func (p *MQTTPanel) SetImage(index int, img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode key %d image: %w", index, err)
	}
	return p.publish(fmt.Sprintf("%s/key/%d/image", p.prefix, index), buf.Bytes())
}

func (p *MQTTPanel) Clear() error {
	return p.publish(p.prefix+"/clear", "clear")
}

func (p *MQTTPanel) publish(topic string, payload interface{}) error {
	c := p.client()
	if c == nil {
		return ErrNotConnected
	}
	token := c.Publish(topic, 0, false, payload)
	token.Wait()
	return token.Error()
}

func (p *MQTTPanel) handleStatus(client MQTT.Client, message MQTT.Message) {
	online := strings.EqualFold(string(message.Payload()), "online")
	if p.online.Swap(online) == online {
		return
	}
	Logger.Info().Msgf("panel bridge %s", string(message.Payload()))
	if online && p.onOnline != nil {
		p.onOnline()
	}
}

func (p *MQTTPanel) handleKey(client MQTT.Client, message MQTT.Message) {
	index, err := strconv.Atoi(strings.TrimPrefix(message.Topic(), p.prefix+"/key/"))
	if err != nil {
		Logger.Debug().Msgf("ignoring key message on %s", message.Topic())
		return
	}
	switch strings.ToLower(string(message.Payload())) {
	case "pressed", "1", "on", "true":
	default:
		return
	}
	select {
	case p.keys <- index:
	default:
		Logger.Warn().Msgf("dropping key %d press, queue full", index)
	}
}
