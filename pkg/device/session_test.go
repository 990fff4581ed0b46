package device

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bmcu/bambubus.go/pkg/bus"
)

func statusPacket(seq, doors, filament, errCode, gate byte) *bus.Packet {
	return &bus.Packet{
		Seq:     seq,
		Src:     0x11,
		Dst:     0x01,
		Command: bus.RspStatus,
		Payload: []byte{doors, filament, errCode, gate, 0x00},
	}
}

func TestSessionStatusResponse(t *testing.T) {
	s := NewSession()
	require.False(t, s.Online())
	require.Equal(t, NoGate, s.Snapshot().ActiveGate)

	s.HandlePacket(statusPacket(7, 0x05, 0x02, 0, 2))
	st := s.Snapshot()
	require.True(t, st.Online)
	require.Equal(t, [bus.GateCount]bool{true, false, true, false}, st.Doors)
	require.Equal(t, [bus.GateCount]bool{false, true, false, false}, st.Filament)
	require.Equal(t, 2, st.ActiveGate)
	require.Zero(t, st.ErrorCode)
	require.Empty(t, st.ErrorHistory)

	// gate index >= 4 means no gate engaged
	s.HandlePacket(statusPacket(8, 0, 0, 0, 0xFF))
	require.Equal(t, NoGate, s.Snapshot().ActiveGate)
}

func TestSessionStatusErrorByte(t *testing.T) {
	s := NewSession()
	s.HandlePacket(statusPacket(1, 0, 0, 0x21, 0))
	st := s.Snapshot()
	require.Equal(t, byte(0x21), st.ErrorCode)
	require.Equal(t, []ErrorRecord{{Code: 0x21, Seq: 1}}, st.ErrorHistory)

	// a clean status resets the current code but keeps history
	s.HandlePacket(statusPacket(2, 0, 0, 0, 0))
	st = s.Snapshot()
	require.Zero(t, st.ErrorCode)
	require.Equal(t, []ErrorRecord{{Code: 0x21, Seq: 1}}, st.ErrorHistory)
}

func TestSessionShortStatusIgnored(t *testing.T) {
	s := NewSession()
	s.HandlePacket(&bus.Packet{Command: bus.RspStatus, Payload: []byte{1, 2, 3}})
	require.False(t, s.Online())
}

func TestSessionErrorResponse(t *testing.T) {
	s := NewSession()
	s.HandlePacket(&bus.Packet{Seq: 5, Command: bus.RspError, Payload: []byte{0x42, 0xAA}})
	st := s.Snapshot()
	// error frames record the fault but do not mark the device online
	require.False(t, st.Online)
	require.Equal(t, byte(0x42), st.ErrorCode)
	require.Equal(t, []ErrorRecord{{Code: 0x42, Seq: 5}}, st.ErrorHistory)

	// repeats are recorded unconditionally
	s.HandlePacket(&bus.Packet{Seq: 6, Command: bus.RspError, Payload: []byte{0x42}})
	require.Len(t, s.Snapshot().ErrorHistory, 2)
}

func TestSessionErrorHistoryBounded(t *testing.T) {
	s := NewSession()
	for i := 0; i < 25; i++ {
		s.HandlePacket(&bus.Packet{Seq: byte(i), Command: bus.RspError, Payload: []byte{byte(i + 1)}})
	}
	history := s.Snapshot().ErrorHistory
	require.Len(t, history, ErrorHistoryCap)
	require.Equal(t, ErrorRecord{Code: 16, Seq: 15}, history[0], "oldest evicted first")
	require.Equal(t, ErrorRecord{Code: 25, Seq: 24}, history[len(history)-1])
}

func TestSessionAckMarksOnline(t *testing.T) {
	for _, cmd := range []byte{bus.CmdPing, bus.CmdHome, bus.CmdSelectGate, bus.CmdQueryStatus} {
		s := NewSession()
		s.HandlePacket(&bus.Packet{Command: cmd | bus.RspAckMask})
		require.True(t, s.Online(), "ack of %02x", cmd)
	}

	// the ack bit alone is not enough: the low bits must name a known
	// request opcode
	s := NewSession()
	s.HandlePacket(&bus.Packet{Command: 0x85})
	require.False(t, s.Online())
}

func TestSessionUnknownCommandIgnored(t *testing.T) {
	s := NewSession()
	before := s.Snapshot()
	s.HandlePacket(&bus.Packet{Command: 0x7E, Payload: []byte{1, 2, 3}})
	require.Equal(t, before, s.Snapshot())
}

func TestSessionSnapshotIsolation(t *testing.T) {
	s := NewSession()
	s.HandlePacket(&bus.Packet{Seq: 1, Command: bus.RspError, Payload: []byte{0x01}})
	st := s.Snapshot()
	s.HandlePacket(&bus.Packet{Seq: 2, Command: bus.RspError, Payload: []byte{0x02}})
	require.Equal(t, []ErrorRecord{{Code: 0x01, Seq: 1}}, st.ErrorHistory)
}
