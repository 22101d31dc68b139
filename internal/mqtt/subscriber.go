package mqtt

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"garden-controller/internal/models"
)

// Subscriber receives ADC responses and routes them to waiting readers by request id
type Subscriber struct {
	client        tokenClient
	responseTopic string

	mu      sync.Mutex
	pending map[string]chan models.AnalogResponse
}

// NewSubscriber creates a subscriber for the resolved response topic
func NewSubscriber(client tokenClient, responseTopic string) *Subscriber {
	return &Subscriber{
		client:        client,
		responseTopic: responseTopic,
		pending:       make(map[string]chan models.AnalogResponse),
	}
}

// Subscribe subscribes to the ADC response topic.
// Safe to call again after a reconnect.
func (s *Subscriber) Subscribe() error {
	token := s.client.Subscribe(s.responseTopic, 1, s.handleAnalogResponse)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to ADC response topic: %w", token.Error())
	}
	log.Printf("Subscribed to ADC response topic: %s", s.responseTopic)
	return nil
}

// expect registers a request id and returns the channel its response will arrive on
func (s *Subscriber) expect(requestID string) <-chan models.AnalogResponse {
	ch := make(chan models.AnalogResponse, 1)
	s.mu.Lock()
	s.pending[requestID] = ch
	s.mu.Unlock()
	return ch
}

// forget drops a request id that will no longer be waited on
func (s *Subscriber) forget(requestID string) {
	s.mu.Lock()
	delete(s.pending, requestID)
	s.mu.Unlock()
}

// handleAnalogResponse runs on a paho goroutine
func (s *Subscriber) handleAnalogResponse(client mqtt.Client, msg mqtt.Message) {
	var resp models.AnalogResponse
	if err := json.Unmarshal(msg.Payload(), &resp); err != nil {
		log.Printf("Error unmarshaling ADC response: %v", err)
		return
	}

	s.mu.Lock()
	ch, ok := s.pending[resp.RequestID]
	delete(s.pending, resp.RequestID)
	s.mu.Unlock()

	if !ok {
		log.Printf("Warning: Dropping late or unknown ADC response %s (channel %d)", resp.RequestID, resp.Channel)
		return
	}

	// Buffered with capacity 1 and removed from pending above, so this never blocks
	ch <- resp
}
