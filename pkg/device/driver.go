package device

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/bmcu/bambubus.go/pkg/bus"
	fx "github.com/bmcu/bambubus.go/pkg/framework"
)

// Transport is the byte-stream link to the BMCU-C. Available reports
// how many bytes can be read without blocking, or 0 when the transport
// cannot tell; the driver then reads fixed-size chunks.
type Transport interface {
	io.ReadWriteCloser
	Flush() error
	Available() int
}

// Default tick periods, matching the device firmware's expectations.
const (
	DefaultReadInterval = 20 * time.Millisecond
	DefaultPollInterval = 500 * time.Millisecond

	defaultReadChunk = 64
	readBackoff      = time.Second
)

// Config configures a Driver. Zero fields fall back to protocol
// defaults.
type Config struct {
	HostAddr     byte
	DeviceAddr   byte
	ReadInterval time.Duration
	PollInterval time.Duration
	ReadChunk    int
}

// Driver drives the half-duplex bambubus link: a fast timer drains the
// transport into the framer, a slow timer polls device status while
// the device is online, and commands are written synchronously behind
// a lock. All bus traffic runs in the injected scheduler's callback
// context; commands may be issued from any goroutine.
type Driver struct {
	transport Transport
	sched     fx.Scheduler
	codec     *bus.Codec
	framer    bus.Framer
	session   *Session
	cfg       Config

	writeLock sync.Mutex

	lock        sync.Mutex
	readTimer   fx.Timer
	statusTimer fx.Timer
	running     bool
}

// NewDriver creates a Driver over the transport, scheduled by sched.
func NewDriver(transport Transport, sched fx.Scheduler, cfg Config) *Driver {
	if cfg.HostAddr == 0 {
		cfg.HostAddr = bus.DefaultHostAddr
	}
	if cfg.DeviceAddr == 0 {
		cfg.DeviceAddr = bus.DefaultDeviceAddr
	}
	if cfg.ReadInterval <= 0 {
		cfg.ReadInterval = DefaultReadInterval
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.ReadChunk <= 0 {
		cfg.ReadChunk = defaultReadChunk
	}
	return &Driver{
		transport: transport,
		sched:     sched,
		codec:     bus.NewCodec(cfg.HostAddr, cfg.DeviceAddr),
		session:   NewSession(),
		cfg:       cfg,
	}
}

// Name implements framework.Named.
func (d *Driver) Name() string {
	return "bmcu-driver"
}

// Start arms the read and status timers and probes the device.
func (d *Driver) Start() {
	d.lock.Lock()
	if d.running {
		d.lock.Unlock()
		return
	}
	d.running = true
	now := d.sched.Monotonic()
	d.readTimer = d.sched.RegisterTimer("bmcu-read", now, d.readTick)
	d.statusTimer = d.sched.RegisterTimer("bmcu-status", now.Add(d.cfg.PollInterval), d.statusTick)
	d.lock.Unlock()

	if err := d.send(bus.CmdPing, nil); err != nil {
		glog.Errorf("presence probe failed: %v", err)
	}
}

// Close unregisters the timers and closes the transport. Transport
// close errors are logged and swallowed.
func (d *Driver) Close() error {
	d.lock.Lock()
	if !d.running {
		d.lock.Unlock()
		return nil
	}
	d.running = false
	readTimer, statusTimer := d.readTimer, d.statusTimer
	d.readTimer, d.statusTimer = nil, nil
	d.lock.Unlock()

	d.sched.UnregisterTimer(readTimer)
	d.sched.UnregisterTimer(statusTimer)
	if err := d.transport.Close(); err != nil {
		glog.Warningf("transport close: %v", err)
	}
	return nil
}

// Run implements framework.Runnable: Start on entry, Close when the
// context is canceled.
func (d *Driver) Run(ctx context.Context) error {
	d.Start()
	<-ctx.Done()
	d.Close()
	return ctx.Err()
}

func (d *Driver) readTick(now time.Time) time.Time {
	chunk := d.cfg.ReadChunk
	if n := d.transport.Available(); n > chunk {
		chunk = n
	}
	buf := make([]byte, chunk)
	n, err := d.transport.Read(buf)
	if err != nil {
		glog.Errorf("bus read failed: %v", err)
		return now.Add(readBackoff)
	}
	if n > 0 {
		for _, pkt := range d.framer.Ingest(buf[:n]) {
			glog.V(2).Infof("frame received (seq=%d src=%02x dst=%02x cmd=%02x len=%d)",
				pkt.Seq, pkt.Src, pkt.Dst, pkt.Command, len(pkt.Payload))
			d.session.HandlePacket(pkt)
		}
	}
	return now.Add(d.cfg.ReadInterval)
}

func (d *Driver) statusTick(now time.Time) time.Time {
	if d.session.Online() {
		if err := d.send(bus.CmdQueryStatus, nil); err != nil {
			glog.Errorf("status poll failed: %v", err)
		}
	}
	return now.Add(d.cfg.PollInterval)
}

// send builds and writes one frame. A failed write drops the command:
// the protocol has no retransmission, the next poll resynchronizes
// state. The sequence number is consumed either way.
func (d *Driver) send(command byte, payload []byte) error {
	d.writeLock.Lock()
	defer d.writeLock.Unlock()
	frame, err := d.codec.Build(command, payload)
	if err != nil {
		return err
	}
	glog.V(2).Infof("frame sent (cmd=%02x): %x", command, frame)
	if _, err := d.transport.Write(frame); err != nil {
		glog.Errorf("bus write failed: %v", err)
		return err
	}
	return d.transport.Flush()
}

// SelectGate asks the device to route filament through gate. Gate
// bounds (0..3) are the caller's contract and are not re-validated.
// The call returns once the frame is written, not when the device
// acknowledges it.
func (d *Driver) SelectGate(gate int) error {
	return d.send(bus.CmdSelectGate, []byte{0x00, byte(gate), 0x00})
}

// Home re-initializes the device mechanics.
func (d *Driver) Home() error {
	return d.send(bus.CmdHome, nil)
}

// CheckGate requests a status refresh for one gate.
func (d *Driver) CheckGate(gate int) error {
	return d.send(bus.CmdQueryStatus, []byte{byte(gate)})
}

// Status returns the current status snapshot. It never blocks on bus
// traffic and may lag an in-flight command.
func (d *Driver) Status() Status {
	return d.session.Snapshot()
}
