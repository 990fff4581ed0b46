package device

import (
	"github.com/bmcu/bambubus.go/pkg/bus"
)

// ErrorHistoryCap bounds the retained error history. When full, the
// oldest record is evicted first.
const ErrorHistoryCap = 10

// NoGate is the ActiveGate value when no gate is engaged.
const NoGate = -1

// ErrorRecord is one device-reported error together with the sequence
// number of the frame it arrived on.
type ErrorRecord struct {
	Code byte `json:"code"`
	Seq  byte `json:"sequence"`
}

// Status is a snapshot of the tracked BMCU-C state. Snapshots handed
// out by the session are copies and stay stable while the live state
// keeps changing.
type Status struct {
	Online       bool                `json:"online"`
	ActiveGate   int                 `json:"active_gate"`
	Doors        [bus.GateCount]bool `json:"doors"`
	Filament     [bus.GateCount]bool `json:"filament_present"`
	ErrorCode    byte                `json:"error_code"`
	ErrorHistory []ErrorRecord       `json:"error_history,omitempty"`
}
