package bus

import (
	"bytes"

	"github.com/golang/glog"
)

// Framer reassembles bambubus frames from a raw byte stream. It owns
// the receive buffer: bytes stay buffered until a scan consumes them
// as frames or skips them as noise, so reads may split frames at
// arbitrary boundaries. A corrupted candidate never raises; the scan
// slides a single byte past its preamble and keeps looking.
type Framer struct {
	buf []byte
}

// Buffered returns the number of bytes retained for the next scan.
func (f *Framer) Buffered() int {
	return len(f.buf)
}

// Ingest appends data to the receive buffer and extracts every frame
// that validates. One call may yield several packets, or none when the
// buffered bytes only hold noise or a partial frame.
func (f *Framer) Ingest(data []byte) []*Packet {
	f.buf = append(f.buf, data...)

	var packets []*Packet
	start := 0
	for {
		sync := bytes.Index(f.buf[start:], Preamble)
		if sync < 0 {
			break
		}
		sync += start
		if sync+3 > len(f.buf) {
			break
		}
		body, lsize, long, ok := decodeLength(f.buf, sync+2)
		if !ok {
			start = sync + 1
			continue
		}
		end := sync + 2 + body
		if end > len(f.buf) {
			// wait for the rest of this candidate
			break
		}
		frame := f.buf[sync:end]
		hdr := 2 + lsize + 4
		if CRC8(frame[:hdr]) != frame[hdr] {
			glog.V(2).Infof("frame dropped (bad header crc): %x", frame)
			start = sync + 1
			continue
		}
		payloadEnd := len(frame) - 2
		recv := uint16(frame[payloadEnd]) | uint16(frame[payloadEnd+1])<<8
		if CRC16(frame[:payloadEnd]) != recv {
			glog.V(2).Infof("frame dropped (bad frame crc): %x", frame)
			start = sync + 1
			continue
		}
		payload := make([]byte, payloadEnd-hdr-1)
		copy(payload, frame[hdr+1:payloadEnd])
		packets = append(packets, &Packet{
			Seq:     frame[2+lsize],
			Src:     frame[2+lsize+1],
			Dst:     frame[2+lsize+2],
			Command: frame[2+lsize+3],
			Payload: payload,
			Long:    long,
		})
		start = end
	}
	if start > 0 {
		f.buf = append(f.buf[:0], f.buf[start:]...)
	}
	return packets
}
