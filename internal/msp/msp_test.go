package msp

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// duplex pairs a reply stream with a request sink, standing in for the
// flight control board's serial port.
type duplex struct {
	io.Reader
	io.Writer
}

func board(reply []byte) (*Conn, *bytes.Buffer) {
	requests := &bytes.Buffer{}
	return NewConn(duplex{Reader: bytes.NewReader(reply), Writer: requests}), requests
}

func replyFrame(cmd byte, payload []byte) []byte {
	return encodeFrame('>', cmd, payload)
}

func attitudePayload(roll, pitch, heading int16) []byte {
	p := make([]byte, 6)
	binary.LittleEndian.PutUint16(p[0:], uint16(roll))
	binary.LittleEndian.PutUint16(p[2:], uint16(pitch))
	binary.LittleEndian.PutUint16(p[4:], uint16(heading))
	return p
}

func TestEncodeFrame_AttitudeRequest(t *testing.T) {
	frame := encodeFrame('<', CmdAttitude, nil)
	assert.Equal(t, []byte{'$', 'M', '<', 0, 108, 108}, frame)
}

func TestChecksum(t *testing.T) {
	assert.Equal(t, byte(0), checksum(0, 0, nil))
	assert.Equal(t, byte(108), checksum(0, 108, nil))
	assert.Equal(t, byte(6^108^1^2), checksum(6, 108, []byte{1, 2}))
}

func TestAttitude(t *testing.T) {
	// roll -45.3°, pitch 10.2°, heading -90° on the wire.
	conn, requests := board(replyFrame(CmdAttitude, attitudePayload(-453, 102, -90)))

	att, err := conn.Attitude()
	require.NoError(t, err)
	assert.InDelta(t, -45.3, att.Roll, 1e-9)
	assert.InDelta(t, 10.2, att.Pitch, 1e-9)
	assert.InDelta(t, -90, att.Heading, 1e-9)

	assert.Equal(t, encodeFrame('<', CmdAttitude, nil), requests.Bytes())
}

func TestAttitude_SyncsPastGarbage(t *testing.T) {
	reply := append([]byte{0xff, '$', 0x00, 'x'}, replyFrame(CmdAttitude, attitudePayload(0, 0, 0))...)
	conn, _ := board(reply)
	_, err := conn.Attitude()
	require.NoError(t, err)
}

func TestRequest_ChecksumMismatch(t *testing.T) {
	reply := replyFrame(CmdAttitude, attitudePayload(1, 2, 3))
	reply[len(reply)-1] ^= 0xff
	conn, _ := board(reply)
	_, err := conn.Attitude()
	require.ErrorContains(t, err, "checksum")
}

func TestRequest_BoardError(t *testing.T) {
	conn, _ := board(encodeFrame('!', CmdSetRawRC, nil))
	_, err := conn.Request(CmdSetRawRC, nil)
	require.ErrorContains(t, err, "rejected")
}

func TestRequest_WrongReplyCmd(t *testing.T) {
	conn, _ := board(replyFrame(CmdRC, nil))
	_, err := conn.Request(CmdAttitude, nil)
	require.Error(t, err)
}

func TestSetRawRC(t *testing.T) {
	channels := [8]uint16{1500, 1500, 1500, 1500, 1100, 1900, 1500, 1500}
	var payload []byte
	for _, v := range channels {
		payload = binary.LittleEndian.AppendUint16(payload, v)
	}
	conn, requests := board(replyFrame(CmdSetRawRC, nil))

	require.NoError(t, conn.SetRawRC(channels))
	assert.Equal(t, encodeFrame('<', CmdSetRawRC, payload), requests.Bytes())
}
