package sensors

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTConfig holds the broker connection and subscription settings.
type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string // e.g. "sensors/+/reading"
}

// ReadingHandler is called for every reading received from a device.
type ReadingHandler func(deviceID string, r Reading)

// MQTTSource subscribes to device topics and records each reading in
// Latest before handing it to OnReading.
type MQTTSource struct {
	client    mqtt.Client
	topic     string
	latest    *Latest
	onReading ReadingHandler
	now       func() time.Time
}

// NewMQTTSource connects to the broker. Call Subscribe to start receiving.
func NewMQTTSource(cfg MQTTConfig, latest *Latest, onReading ReadingHandler) (*MQTTSource, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		log.Println("MQTT: Connection established")
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Printf("MQTT: Connection lost: %v", err)
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	log.Println("MQTT: Connected to broker:", cfg.Broker)

	return &MQTTSource{
		client:    client,
		topic:     cfg.Topic,
		latest:    latest,
		onReading: onReading,
		now:       time.Now,
	}, nil
}

// Subscribe starts delivering device readings.
func (s *MQTTSource) Subscribe() error {
	token := s.client.Subscribe(s.topic, 1, s.handleMessage)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", s.topic, token.Error())
	}
	log.Printf("MQTT: Subscribed to sensor topic: %s", s.topic)
	return nil
}

func (s *MQTTSource) Close() {
	s.client.Disconnect(250)
	log.Println("MQTT: Disconnected")
}

func (s *MQTTSource) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	var payload any
	if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
		log.Printf("MQTT: Invalid sensor payload on %s: %v", msg.Topic(), err)
		return
	}

	raw, ok := ExtractRecord(payload)
	if !ok {
		log.Printf("MQTT: No sensor record in payload on %s", msg.Topic())
		return
	}

	reading := Normalize(raw, s.now())
	s.latest.Set(reading, OriginMQTT)

	deviceID := extractDeviceID(msg.Topic())
	log.Printf("MQTT: Reading from %s: temperature=%.2f moisture=%.2f pH=%.2f",
		deviceID, reading.Temperature, reading.SoilMoisture, reading.SoilPH)

	if s.onReading != nil {
		s.onReading(deviceID, reading)
	}
}

// extractDeviceID returns the second topic level, as in sensors/{device_id}/reading.
func extractDeviceID(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) >= 3 {
		return parts[1]
	}
	return ""
}
