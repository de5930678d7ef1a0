package bus

import (
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// MQTTSinkConfig configures the optional MQTT telemetry sink (spec §4.8's
// bus feeding observability; not itself part of the sync loop).
type MQTTSinkConfig struct {
	Broker      string
	Username    string
	Password    string
	TopicPrefix string
	QoS         byte
	Retain      bool
}

// MQTTSink relays published bus records onto MQTT topics, one topic per
// channel, CSV payload unchanged from the bus record. Grounded on the
// teacher's mqtt_publisher.go connection setup; simplified to a
// fire-and-forget per-record publish since telemetry records here are
// small and frequent rather than aggregated metric snapshots.
type MQTTSink struct {
	client mqtt.Client
	cfg    MQTTSinkConfig
}

// NewMQTTSink connects to the broker and returns a sink ready to Relay.
func NewMQTTSink(cfg MQTTSinkConfig) (*MQTTSink, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID("wwvsync_" + uuid.New().String())
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)

	opts.SetOnConnectHandler(func(mqtt.Client) {
		log.Println("[bus.mqtt] connected")
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Printf("[bus.mqtt] connection lost: %v", err)
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("bus: connect mqtt broker %s: %w", cfg.Broker, token.Error())
	}
	return &MQTTSink{client: client, cfg: cfg}, nil
}

// Relay drains feed and publishes each record to {prefix}/{channel} until
// feed is closed.
func (s *MQTTSink) Relay(channel Channel, feed <-chan Record) {
	topic := fmt.Sprintf("%s/%s", s.cfg.TopicPrefix, channel)
	for rec := range feed {
		token := s.client.Publish(topic, s.cfg.QoS, s.cfg.Retain, rec.String())
		go func(tok mqtt.Token) {
			if tok.Wait() && tok.Error() != nil {
				log.Printf("[bus.mqtt] publish to %s failed: %v", topic, tok.Error())
			}
		}(token)
	}
}

func (s *MQTTSink) Close() {
	if s.client.IsConnected() {
		s.client.Disconnect(250)
	}
}
