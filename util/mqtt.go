package util

import (
	"fmt"

	MQTT "github.com/eclipse/paho.mqtt.golang"
)

var Client MQTT.Client

var subscriptions map[string]MQTT.MessageHandler

var connectHandlers map[string]func(MQTT.Client)

// OnlineTopic carries the daemon's availability, as online or offline.
func OnlineTopic() string {
	return Config.GetString("state_prefix") + "/online"
}

var connectHandler MQTT.OnConnectHandler = func(client MQTT.Client) {
	Logger.Info().Msg("Connected")
	subscribe(client)
	client.Publish(OnlineTopic(), 0, true, "online").Wait()
	if connectHandlers == nil {
		connectHandlers = make(map[string]func(client MQTT.Client))
	}
	for _, handler := range connectHandlers {
		handler(client)
	}
}

func RegisterMQTTConnectHook(name string, handler func(MQTT.Client)) {
	if connectHandlers == nil {
		connectHandlers = make(map[string]func(client MQTT.Client))
	}
	if handler == nil {
		delete(connectHandlers, name)
	} else {
		connectHandlers[name] = handler
	}
}

func subscribe(client MQTT.Client) {
	if subscriptions == nil {
		subscriptions = make(map[string]MQTT.MessageHandler)
	}
	for topic, handler := range subscriptions {
		if token := client.Subscribe(topic, 0, handler); token.Wait() && token.Error() != nil {
			Logger.Error().Msgf("Error Subscribing to %s: %v", topic, token.Error())
		}
	}
}

// RegisterMQTTSubscription adds a subscription that is (re)made on every
// connect. A nil handler removes it.
func RegisterMQTTSubscription(topic string, handler MQTT.MessageHandler) {
	if subscriptions == nil {
		subscriptions = make(map[string]MQTT.MessageHandler)
	}
	if handler == nil {
		delete(subscriptions, topic)
	} else {
		subscriptions[topic] = handler
	}
	if Client != nil && Client.IsConnected() && handler != nil {
		if token := Client.Subscribe(topic, 0, handler); token.Wait() && token.Error() != nil {
			Logger.Error().Msgf("Error Subscribing to %s: %v", topic, token.Error())
		}
	}
}

func receiver(client MQTT.Client, message MQTT.Message) {
	Logger.Warn().Msgf("Received message on %v but no handler", message.Topic())
}

var connectLostHandler MQTT.ConnectionLostHandler = func(client MQTT.Client, err error) {
	Logger.Info().Msgf("Connect lost: %v", err)
}

// MQTTEnabled reports whether a broker is configured.
func MQTTEnabled() bool {
	return Config.GetString("broker_uri") != ""
}

func MqttInit() error {
	opts := MQTT.NewClientOptions()
	opts.AddBroker(Config.GetString("broker_uri"))
	opts.SetClientID(Config.GetString("id_base") + "_" + GetRandString(6))
	opts.SetUsername(Config.GetString("username"))
	opts.SetPassword(Config.GetString("password"))
	opts.SetCleanSession(Config.GetBool("cleansess"))
	opts.SetAutoReconnect(true)
	opts.SetWill(OnlineTopic(), "offline", 0, true)
	opts.OnConnectionLost = connectLostHandler
	opts.OnConnect = connectHandler
	opts.SetDefaultPublishHandler(receiver)

	if Client != nil {
		Logger.Debug().Msg("Client exists - destroying")
		if Client.IsConnected() {
			Client.Disconnect(1000)
		}
		Client = nil
	}

	Client = MQTT.NewClient(opts)

	if token := Client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("connecting to %s: %w", Config.GetString("broker_uri"), token.Error())
	}
	return nil
}

// CurrentClient returns the live client. Components hold this function
// rather than the client so they follow reconnects after a config change.
func CurrentClient() MQTT.Client {
	return Client
}
