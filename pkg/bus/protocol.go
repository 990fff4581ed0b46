package bus

// Preamble opens every bambubus frame.
var Preamble = []byte{0x3D, 0xC5}

// Body length limits of the short/long length-field encodings. The
// body counts every byte after the preamble.
const (
	ShortMaxBody = 0x3F
	LongMaxBody  = 0x3FFF

	// length field + seq + src + dst + command + crc8 + crc16
	shortOverhead = 8
	longOverhead  = 9
)

// Request opcodes understood by the BMCU-C.
const (
	CmdPing        byte = 0x01
	CmdHome        byte = 0x02
	CmdSelectGate  byte = 0x03
	CmdQueryStatus byte = 0x04
)

// Response codes sent by the BMCU-C.
const (
	RspAckMask byte = 0x80
	RspStatus  byte = 0x90
	RspError   byte = 0x91
)

// GateCount is the number of addressable filament gates.
const GateCount = 4

// Default bus addresses of the host and the BMCU-C.
const (
	DefaultHostAddr   byte = 0x01
	DefaultDeviceAddr byte = 0x11
)
