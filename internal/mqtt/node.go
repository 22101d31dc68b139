package mqtt

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"garden-controller/internal/models"
)

// ErrConversionFailed is returned when the node reports a failed ADC conversion
var ErrConversionFailed = errors.New("node reported conversion failure")

// Node is a remote ESP32 plant node: it provides analog reads, the relay and the servo
type Node struct {
	publisher  *Publisher
	subscriber *Subscriber
}

// NewNode wires a publisher/subscriber pair into the hardware capabilities
func NewNode(publisher *Publisher, subscriber *Subscriber) *Node {
	return &Node{publisher: publisher, subscriber: subscriber}
}

// ReadAnalog requests one conversion and waits for the matching response or ctx expiry
func (n *Node) ReadAnalog(ctx context.Context, channel int) (int, error) {
	req := &models.AnalogRequest{
		RequestID: uuid.NewString(),
		Channel:   channel,
	}

	respCh := n.subscriber.expect(req.RequestID)
	if err := n.publisher.PublishAnalogRequest(req); err != nil {
		n.subscriber.forget(req.RequestID)
		return 0, fmt.Errorf("failed to request ADC channel %d: %w", channel, err)
	}

	select {
	case <-ctx.Done():
		n.subscriber.forget(req.RequestID)
		if !n.publisher.connected() {
			return 0, fmt.Errorf("no ADC response for channel %d, broker connection lost: %w", channel, ctx.Err())
		}
		return 0, fmt.Errorf("no ADC response for channel %d: %w", channel, ctx.Err())
	case resp := <-respCh:
		if resp.Error != "" {
			return 0, fmt.Errorf("%w: channel %d: %s", ErrConversionFailed, channel, resp.Error)
		}
		if resp.Channel != channel {
			return 0, fmt.Errorf("ADC response for channel %d, requested %d", resp.Channel, channel)
		}
		return resp.Value, nil
	}
}

// SetState switches the relay
func (n *Node) SetState(on bool) error {
	return n.publisher.PublishRelay(on)
}

// SetAngleDuty sets the servo duty
func (n *Node) SetAngleDuty(duty int) error {
	return n.publisher.PublishServo(duty)
}
