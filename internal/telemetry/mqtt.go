// Package telemetry publishes trunking state-machine snapshots and
// P25 event-history entries to external subscribers: MQTT for
// machine consumers, a websocket feed for UI consumers. This backs
// the hooks.Telemetry hook domain's PublishTelemetry/RequestRedraw
// calls.
package telemetry

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTConfig configures the MQTT publisher connection.
type MQTTConfig struct {
	Broker   string
	Username string
	Password string
	Topic    string
}

// SnapshotPayload is the JSON message published for each trunking SM
// tick/event.
type SnapshotPayload struct {
	Timestamp int64                  `json:"timestamp"`
	Fields    map[string]interface{} `json:"fields"`
}

// MQTTPublisher publishes SnapshotPayloads to a broker topic.
type MQTTPublisher struct {
	client mqtt.Client
	topic  string
}

func generateClientID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "dsdneo"
	}
	return "dsdneo_" + hex.EncodeToString(b)
}

// NewMQTTPublisher connects to the configured broker and returns a
// publisher bound to its topic.
func NewMQTTPublisher(cfg MQTTConfig) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(generateClientID())
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(10 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(mqtt.Client) {
		log.Println("telemetry: connected to mqtt broker")
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Printf("telemetry: mqtt connection lost: %v", err)
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("telemetry: mqtt connect: %w", token.Error())
	}

	return &MQTTPublisher{client: client, topic: cfg.Topic}, nil
}

// Publish marshals and publishes fields under the configured topic.
func (p *MQTTPublisher) Publish(fields map[string]interface{}, now time.Time) error {
	payload := SnapshotPayload{Timestamp: now.Unix(), Fields: fields}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telemetry: marshal payload: %w", err)
	}
	token := p.client.Publish(p.topic, 0, false, body)
	token.Wait()
	return token.Error()
}

// Disconnect closes the MQTT connection.
func (p *MQTTPublisher) Disconnect() {
	p.client.Disconnect(250)
}
