package hardware

import (
	"fmt"
	"log"
	"sync"

	"github.com/stianeikeland/go-rpio/v4"
)

const (
	// pwmClock gives 1 µs per PWM tick
	pwmClock = 1_000_000
	// servoFrame is the 20 ms (50 Hz) servo frame in ticks
	servoFrame = 20_000
)

// outputPin is the subset of rpio.Pin used to drive the relay
type outputPin interface {
	High()
	Low()
}

// pwmPin is the subset of rpio.Pin used to drive the servo
type pwmPin interface {
	DutyCycle(dutyLen, cycleLen uint32)
}

// GPIO owns the memory-mapped GPIO registers of the host
type GPIO struct {
	mu     sync.Mutex
	opened bool
}

// OpenGPIO maps the GPIO registers. Close must be called on shutdown.
func OpenGPIO() (*GPIO, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("failed to open GPIO: %w", err)
	}
	log.Println("GPIO: Registers mapped")
	return &GPIO{opened: true}, nil
}

// Relay configures pin as an output driving the pump relay, initially off
func (g *GPIO) Relay(pinNumber int, activeLow bool) *Relay {
	pin := rpio.Pin(pinNumber)
	pin.Output()
	relay := &Relay{pin: pin, activeLow: activeLow}
	relay.Off()
	log.Printf("GPIO: Relay on pin %d (active low: %v)", pinNumber, activeLow)
	return relay
}

// Servo configures pin for hardware PWM with a 50 Hz frame
func (g *GPIO) Servo(pinNumber int) *Servo {
	pin := rpio.Pin(pinNumber)
	pin.Mode(rpio.Pwm)
	pin.Freq(pwmClock)
	pin.DutyCycle(0, servoFrame)
	log.Printf("GPIO: Servo on PWM pin %d", pinNumber)
	return &Servo{pin: pin}
}

// Close unmaps the GPIO registers
func (g *GPIO) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.opened {
		return nil
	}
	g.opened = false
	if err := rpio.Close(); err != nil {
		return fmt.Errorf("failed to close GPIO: %w", err)
	}
	log.Println("GPIO: Registers unmapped")
	return nil
}

// Relay drives the water pump relay
type Relay struct {
	pin       outputPin
	activeLow bool
}

// SetState energises (on) or releases the relay.
// Register writes cannot fail once the registers are mapped, so the error is always nil.
func (r *Relay) SetState(on bool) error {
	r.drive(on)
	return nil
}

// Off releases the relay
func (r *Relay) Off() {
	r.drive(false)
}

func (r *Relay) drive(on bool) {
	if on != r.activeLow {
		r.pin.High()
	} else {
		r.pin.Low()
	}
}

// Servo drives the shade servo
type Servo struct {
	pin pwmPin
}

// SetAngleDuty sets the pulse width in microseconds
func (s *Servo) SetAngleDuty(duty int) error {
	if duty < 0 || duty > servoFrame {
		return fmt.Errorf("servo duty %d µs outside the %d µs frame", duty, servoFrame)
	}
	s.pin.DutyCycle(uint32(duty), servoFrame)
	return nil
}
