package device

import (
	"sync"

	"github.com/golang/glog"

	"github.com/bmcu/bambubus.go/pkg/bus"
)

// Session tracks the live device state from decoded packets. The
// device is marked online on the first acknowledged request or
// well-formed status response. Error responses alone do not mark it
// online: they can arrive before a successful handshake. Nothing flips
// the state back to offline on silence; liveness detection on a quiet
// bus is left to the caller.
type Session struct {
	lock   sync.Mutex
	status Status
}

// NewSession creates a Session with no gate engaged.
func NewSession() *Session {
	return &Session{status: Status{ActiveGate: NoGate}}
}

// Online reports whether the device has been heard from.
func (s *Session) Online() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.status.Online
}

// Snapshot returns a copy of the tracked status. The error history is
// copied so the caller never observes later mutations.
func (s *Session) Snapshot() Status {
	s.lock.Lock()
	defer s.lock.Unlock()
	status := s.status
	if n := len(s.status.ErrorHistory); n > 0 {
		status.ErrorHistory = make([]ErrorRecord, n)
		copy(status.ErrorHistory, s.status.ErrorHistory)
	}
	return status
}

// HandlePacket interprets one decoded packet into the tracked state.
// Unrecognized commands are logged and ignored.
func (s *Session) HandlePacket(pkt *bus.Packet) {
	s.lock.Lock()
	defer s.lock.Unlock()
	switch {
	case pkt.IsAck():
		if !s.status.Online {
			glog.V(1).Infof("device online (ack cmd=%02x)", pkt.Command)
		}
		s.status.Online = true
	case pkt.Command == bus.RspStatus && len(pkt.Payload) >= 5:
		s.handleStatus(pkt)
	case pkt.Command == bus.RspError && len(pkt.Payload) > 0:
		code := pkt.Payload[0]
		s.status.ErrorCode = code
		s.pushError(code, pkt.Seq)
		glog.Warningf("device error %02x (payload=%x)", code, pkt.Payload)
	default:
		glog.V(2).Infof("unhandled frame cmd=%02x payload=%x", pkt.Command, pkt.Payload)
	}
}

func (s *Session) handleStatus(pkt *bus.Packet) {
	s.status.Online = true
	doors, filament := pkt.Payload[0], pkt.Payload[1]
	for i := 0; i < bus.GateCount; i++ {
		s.status.Doors[i] = doors&(1<<uint(i)) != 0
		s.status.Filament[i] = filament&(1<<uint(i)) != 0
	}
	if gate := int(pkt.Payload[3]); gate < bus.GateCount {
		s.status.ActiveGate = gate
	} else {
		s.status.ActiveGate = NoGate
	}
	// A zero error byte clears the current code but keeps history.
	if code := pkt.Payload[2]; code != 0 {
		s.status.ErrorCode = code
		s.pushError(code, pkt.Seq)
	} else {
		s.status.ErrorCode = 0
	}
}

func (s *Session) pushError(code, seq byte) {
	h := append(s.status.ErrorHistory, ErrorRecord{Code: code, Seq: seq})
	if n := len(h) - ErrorHistoryCap; n > 0 {
		h = h[n:]
	}
	s.status.ErrorHistory = h
}
