package hardware

import (
	"context"
	"fmt"
	"log"
	"sync"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// MCP3208Channels is the number of single-ended inputs on the MCP3208
const MCP3208Channels = 8

// txConn is the subset of spi.Conn used by the ADC
type txConn interface {
	Tx(w, r []byte) error
}

// MCP3208 reads 12-bit single-ended conversions over SPI
type MCP3208 struct {
	mu   sync.Mutex
	port spi.PortCloser
	conn txConn
}

// OpenMCP3208 initialises the host drivers and connects to the ADC on port.
// An empty port selects the first available SPI port.
func OpenMCP3208(port string) (*MCP3208, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialise host drivers: %w", err)
	}

	p, err := spireg.Open(port)
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI port %q: %w", port, err)
	}

	conn, err := p.Connect(physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to connect to MCP3208: %w", err)
	}

	log.Printf("ADC: MCP3208 connected on %s", p)
	return &MCP3208{port: p, conn: conn}, nil
}

// ReadAnalog performs one conversion on channel
func (a *MCP3208) ReadAnalog(ctx context.Context, channel int) (int, error) {
	w, err := requestFrame(channel)
	if err != nil {
		return 0, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	// A transfer takes microseconds, so the deadline is only checked before it starts
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("ADC read on channel %d: %w", channel, err)
	}

	r := make([]byte, len(w))
	if err := a.conn.Tx(w, r); err != nil {
		return 0, fmt.Errorf("SPI transfer on channel %d failed: %w", channel, err)
	}
	return decodeFrame(r), nil
}

// Close releases the SPI port
func (a *MCP3208) Close() error {
	if a.port == nil {
		return nil
	}
	return a.port.Close()
}

// requestFrame builds the 3-byte single-ended conversion request:
// start bit, SGL/DIFF=1 and the 3 channel bits aligned so the result ends byte-aligned
func requestFrame(channel int) ([]byte, error) {
	if channel < 0 || channel >= MCP3208Channels {
		return nil, fmt.Errorf("ADC channel %d out of range [0,%d)", channel, MCP3208Channels)
	}
	ch := byte(channel)
	return []byte{0x06 | (ch >> 2), (ch & 0x03) << 6, 0x00}, nil
}

// decodeFrame extracts the 12-bit result from the response
func decodeFrame(r []byte) int {
	return int(r[1]&0x0F)<<8 | int(r[2])
}
