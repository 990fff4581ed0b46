// Package serial adapts a physical serial port to the bambubus driver.
package serial

import (
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/tarm/serial"
)

// DefaultBaud is the nominal bambubus line rate.
const DefaultBaud = 1250000

// Config describes the physical bus settings. The line always runs
// with 8 data bits, even parity and 1 stop bit.
type Config struct {
	Device string
	Baud   int
	// FallbackBaud, when non-zero, is retried after the nominal rate
	// is rejected by the driver. Without it a rejected rate fails the
	// session instead of silently running at the wrong speed.
	FallbackBaud int
	ReadTimeout  time.Duration
}

// Port wraps a serial port as a device.Transport.
type Port struct {
	port *serial.Port
}

// Open opens the serial device with 8E1 framing.
func Open(cfg Config) (*Port, error) {
	if cfg.Device == "" {
		return nil, fmt.Errorf("serial device not configured")
	}
	if cfg.Baud <= 0 {
		cfg.Baud = DefaultBaud
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 5 * time.Millisecond
	}
	port, err := open(cfg.Device, cfg.Baud, cfg.ReadTimeout)
	if err != nil && cfg.FallbackBaud > 0 && cfg.FallbackBaud != cfg.Baud {
		glog.Warningf("baud %d rejected on %s, trying %d: %v",
			cfg.Baud, cfg.Device, cfg.FallbackBaud, err)
		port, err = open(cfg.Device, cfg.FallbackBaud, cfg.ReadTimeout)
	}
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %v", cfg.Device, err)
	}
	return &Port{port: port}, nil
}

func open(device string, baud int, readTimeout time.Duration) (*serial.Port, error) {
	return serial.OpenPort(&serial.Config{
		Name:        device,
		Baud:        baud,
		ReadTimeout: readTimeout,
		Size:        8,
		Parity:      serial.ParityEven,
		StopBits:    serial.Stop1,
	})
}

// Read reads available bytes, returning 0 on a quiet line once the
// configured read timeout expires.
func (p *Port) Read(b []byte) (int, error) {
	return p.port.Read(b)
}

// Write writes bytes to the line.
func (p *Port) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

// Close closes the port.
func (p *Port) Close() error {
	return p.port.Close()
}

// Flush is a no-op: tarm/serial writes synchronously and exposes no
// output drain.
func (p *Port) Flush() error {
	return nil
}

// Available reports 0: tarm/serial does not expose the driver queue
// depth, so the bus driver falls back to fixed-size chunk reads.
func (p *Port) Available() int {
	return 0
}
