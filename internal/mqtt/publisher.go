package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"garden-controller/internal/models"
)

// publishTimeout bounds how long a command waits for the broker's acknowledgement
const publishTimeout = 5 * time.Second

// ErrNotConnected is returned when publishing while the broker connection is down
var ErrNotConnected = errors.New("not connected to MQTT broker")

// tokenClient is the subset of the paho client used by Publisher, Subscriber and Node
type tokenClient interface {
	IsConnected() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
}

// Topics holds the plant node topic patterns
type Topics struct {
	ADCRequest  string // e.g., "plant/{device_id}/adc/request"
	ADCResponse string // e.g., "plant/{device_id}/adc/response"
	Relay       string // e.g., "plant/{device_id}/relay"
	Servo       string // e.g., "plant/{device_id}/servo"
}

// For resolves the {device_id} placeholder in every topic
func (t Topics) For(deviceID string) Topics {
	return Topics{
		ADCRequest:  formatTopic(t.ADCRequest, deviceID),
		ADCResponse: formatTopic(t.ADCResponse, deviceID),
		Relay:       formatTopic(t.Relay, deviceID),
		Servo:       formatTopic(t.Servo, deviceID),
	}
}

// Publisher sends ADC requests and actuator commands to the plant node
type Publisher struct {
	client tokenClient
	topics Topics
}

// NewPublisher creates a publisher for already-resolved topics
func NewPublisher(client tokenClient, topics Topics) *Publisher {
	return &Publisher{
		client: client,
		topics: topics,
	}
}

// connected reports the broker connection state
func (p *Publisher) connected() bool {
	return p.client.IsConnected()
}

// PublishAnalogRequest asks the node for one ADC conversion
func (p *Publisher) PublishAnalogRequest(req *models.AnalogRequest) error {
	return p.publishJSON(p.topics.ADCRequest, req)
}

// PublishRelay switches the node's relay
func (p *Publisher) PublishRelay(on bool) error {
	if err := p.publishJSON(p.topics.Relay, &models.RelayCommand{On: on}); err != nil {
		return err
	}
	log.Printf("MQTT Publisher: Relay -> %v", on)
	return nil
}

// PublishServo sets the node's servo duty
func (p *Publisher) PublishServo(duty int) error {
	return p.publishJSON(p.topics.Servo, &models.ServoCommand{Duty: duty})
}

// publishJSON publishes with QoS 1 and waits for the broker's acknowledgement
func (p *Publisher) publishJSON(topic string, v interface{}) error {
	// Fail fast rather than queue commands while paho reconnects
	if !p.connected() {
		return fmt.Errorf("%w: cannot publish to %s", ErrNotConnected, topic)
	}

	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal payload for %s: %w", topic, err)
	}

	token := p.client.Publish(topic, 1, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("timed out publishing to %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

// formatTopic replaces {device_id} placeholder with actual device ID
func formatTopic(topicPattern, deviceID string) string {
	return strings.ReplaceAll(topicPattern, "{device_id}", deviceID)
}
