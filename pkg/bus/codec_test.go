package bus

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildShortFrame(t *testing.T) {
	codec := NewCodec(0x01, 0x11)
	frame, err := codec.Build(CmdSelectGate, []byte{0x00, 0x02, 0x00})
	require.NoError(t, err)

	require.Equal(t, Preamble, frame[:2])
	require.Equal(t, byte(3+8), frame[2], "short body length")
	require.Equal(t, byte(0), frame[3], "sequence")
	require.Equal(t, byte(0x01), frame[4], "src")
	require.Equal(t, byte(0x11), frame[5], "dst")
	require.Equal(t, CmdSelectGate, frame[6])
	require.Equal(t, CRC8(frame[:7]), frame[7], "header checksum")
	require.Equal(t, []byte{0x00, 0x02, 0x00}, frame[8:11])
	crc := CRC16(frame[:11])
	require.Equal(t, []byte{byte(crc), byte(crc >> 8)}, frame[11:], "frame checksum little-endian")
}

func TestBuildTo(t *testing.T) {
	codec := NewCodec(0x01, 0x11)
	frame, err := codec.BuildTo(CmdPing, nil, 0x22)
	require.NoError(t, err)
	require.Equal(t, byte(0x22), frame[5])
}

func TestBuildSequenceWraps(t *testing.T) {
	codec := NewCodec(0x01, 0x11)
	for i := 0; i < 260; i++ {
		frame, err := codec.Build(CmdPing, nil)
		require.NoError(t, err)
		require.Equal(t, byte(i), frame[3], "build #%d", i)
	}
	require.Equal(t, byte(260%256), codec.Seq())
}

func TestBuildLengthBoundary(t *testing.T) {
	codec := NewCodec(0x01, 0x11)

	// payload+8 == 0x3F still fits the short encoding
	frame, err := codec.Build(CmdHome, make([]byte, 0x3F-8))
	require.NoError(t, err)
	require.Zero(t, frame[2]&0x80, "length high bit")
	require.Equal(t, byte(0x3F), frame[2])
	require.Len(t, frame, 2+0x3F)

	// one more byte forces the long encoding
	frame, err = codec.Build(CmdHome, make([]byte, 0x40-8))
	require.NoError(t, err)
	require.NotZero(t, frame[2]&0x80, "length high bit")
	body := int(frame[2]&0x3F)<<8 | int(frame[3])
	require.Equal(t, 0x40-8+9, body)
	require.Len(t, frame, 2+body)
}

func TestBuildLongFrame(t *testing.T) {
	codec := NewCodec(0x01, 0x11)
	payload := bytes.Repeat([]byte{0xA5}, 300)
	frame, err := codec.Build(CmdQueryStatus, payload)
	require.NoError(t, err)
	require.NotZero(t, frame[2]&0x80)
	require.Equal(t, byte(0), frame[4], "sequence")
	require.Equal(t, CRC8(frame[:8]), frame[8], "header checksum spans the 2-byte length field")
	require.Equal(t, payload, frame[9:9+300])
}

func TestBuildOversizedPayload(t *testing.T) {
	codec := NewCodec(0x01, 0x11)
	_, err := codec.Build(CmdHome, make([]byte, LongMaxBody-9+1))
	require.Equal(t, ErrPayloadTooLarge, err)
	// a failed encode does not burn a sequence number
	frame, err := codec.Build(CmdHome, nil)
	require.NoError(t, err)
	require.Equal(t, byte(0), frame[3])
}
