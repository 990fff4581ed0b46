package bus

// Packet contains the information of a validated frame. Instances are
// produced by Framer only after both checksums pass and are not
// modified afterwards.
type Packet struct {
	Seq     byte
	Src     byte
	Dst     byte
	Command byte
	Payload []byte
	Long    bool
}

// IsAck reports whether the packet acknowledges one of the known
// request opcodes.
func (p *Packet) IsAck() bool {
	if p.Command&RspAckMask == 0 {
		return false
	}
	switch p.Command &^ RspAckMask {
	case CmdPing, CmdHome, CmdSelectGate, CmdQueryStatus:
		return true
	}
	return false
}
