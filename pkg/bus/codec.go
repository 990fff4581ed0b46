package bus

// Codec builds outgoing bambubus frames. It owns the host and device
// addresses and a sequence counter advanced (mod 256) on every encoded
// frame, whether or not that frame is ever transmitted successfully.
type Codec struct {
	src byte
	dst byte
	seq byte
}

// NewCodec creates a Codec with the given source and default
// destination addresses.
func NewCodec(src, dst byte) *Codec {
	return &Codec{src: src, dst: dst}
}

// Seq returns the sequence number the next frame will carry.
func (c *Codec) Seq() byte {
	return c.seq
}

// Build encodes a frame for command with payload, addressed to the
// default destination.
func (c *Codec) Build(command byte, payload []byte) ([]byte, error) {
	return c.BuildTo(command, payload, c.dst)
}

// BuildTo encodes a frame with an explicit destination address. The
// frame is short when the encoded body fits in 6 bits, long otherwise.
// An oversized payload fails without consuming a sequence number.
func (c *Codec) BuildTo(command byte, payload []byte, dst byte) ([]byte, error) {
	long := len(payload)+shortOverhead > ShortMaxBody
	length, err := encodeLength(len(payload), long)
	if err != nil {
		return nil, err
	}

	frame := make([]byte, 0, 2+len(length)+4+1+len(payload)+2)
	frame = append(frame, Preamble...)
	frame = append(frame, length...)
	frame = append(frame, c.seq, c.src, dst, command)
	c.seq++

	frame = append(frame, CRC8(frame))
	frame = append(frame, payload...)

	crc := CRC16(frame)
	return append(frame, byte(crc), byte(crc>>8)), nil
}

func encodeLength(payloadLen int, long bool) ([]byte, error) {
	if long {
		body := payloadLen + longOverhead
		if body > LongMaxBody {
			return nil, ErrPayloadTooLarge
		}
		return []byte{0x80 | byte(body>>8)&0x3F, byte(body)}, nil
	}
	body := payloadLen + shortOverhead
	if body > ShortMaxBody {
		return nil, ErrPayloadTooLarge
	}
	return []byte{byte(body)}, nil
}

// decodeLength decodes the length field at off. It returns the body
// length and the size of the length field in bytes. ok is false for a
// truncated long marker or a body below the protocol minimum, both of
// which mean the preamble before off was a false match.
func decodeLength(buf []byte, off int) (body, size int, long, ok bool) {
	b := buf[off]
	if b&0x80 != 0 {
		if off+1 >= len(buf) {
			return 0, 0, false, false
		}
		body = int(b&0x3F)<<8 | int(buf[off+1])
		if body < longOverhead {
			return 0, 0, false, false
		}
		return body, 2, true, true
	}
	body = int(b)
	if body < shortOverhead {
		return 0, 0, false, false
	}
	return body, 1, false, true
}
