package mqtt

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/bmcu/bambubus.go/pkg/bus"
	"github.com/bmcu/bambubus.go/pkg/device"
)

// Topics relative to the queue's prefix. Command payloads carry the
// gate index as a decimal digit; home takes no payload.
const (
	TopicSelectGate = "control/select-gate"
	TopicHome       = "control/home"
	TopicCheckGate  = "control/check-gate"
	TopicStatus     = "status"
)

// DefaultStatusInterval is how often the status snapshot is published.
const DefaultStatusInterval = time.Second

// Bridge maps MQTT command topics 1:1 onto the driver's operations and
// publishes the JSON status snapshot periodically (retained, so a late
// subscriber sees the last state immediately).
type Bridge struct {
	Queue          *Queue
	Driver         *device.Driver
	StatusInterval time.Duration
}

// NewBridge creates a Bridge connected to the broker at brokerURL.
func NewBridge(brokerURL string, drv *device.Driver) (*Bridge, error) {
	q, err := NewQueueFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	b := &Bridge{Queue: q, Driver: drv, StatusInterval: DefaultStatusInterval}
	b.Queue.Sub(TopicSelectGate, b.onSelectGate)
	b.Queue.Sub(TopicHome, b.onHome)
	b.Queue.Sub(TopicCheckGate, b.onCheckGate)
	return b, nil
}

// Name implements framework.Named.
func (b *Bridge) Name() string {
	return "mqtt-bridge"
}

// Run implements framework.Runnable: connect, publish status until the
// context is canceled, then disconnect.
func (b *Bridge) Run(ctx context.Context) error {
	if err := b.Queue.Connect(); err != nil {
		return err
	}
	interval := b.StatusInterval
	if interval <= 0 {
		interval = DefaultStatusInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			b.Queue.Close()
			return ctx.Err()
		case <-ticker.C:
			b.publishStatus()
		}
	}
}

func (b *Bridge) publishStatus() {
	status := b.Driver.Status()
	payload, err := json.Marshal(&status)
	if err != nil {
		glog.Errorf("status encode failed: %v", err)
		return
	}
	b.Queue.PubWith(TopicStatus, payload, 0, true)
}

func (b *Bridge) onSelectGate(topic string, payload []byte) {
	gate, ok := parseGate(payload)
	if !ok {
		glog.Warningf("bad gate on %q: %q", topic, payload)
		return
	}
	if err := b.Driver.SelectGate(gate); err != nil {
		glog.Errorf("select-gate %d failed: %v", gate, err)
	}
}

func (b *Bridge) onHome(topic string, payload []byte) {
	if err := b.Driver.Home(); err != nil {
		glog.Errorf("home failed: %v", err)
	}
}

func (b *Bridge) onCheckGate(topic string, payload []byte) {
	gate, ok := parseGate(payload)
	if !ok {
		glog.Warningf("bad gate on %q: %q", topic, payload)
		return
	}
	if err := b.Driver.CheckGate(gate); err != nil {
		glog.Errorf("check-gate %d failed: %v", gate, err)
	}
}

func parseGate(payload []byte) (int, bool) {
	gate, err := strconv.Atoi(strings.TrimSpace(string(payload)))
	if err != nil || gate < 0 || gate >= bus.GateCount {
		return 0, false
	}
	return gate, true
}
