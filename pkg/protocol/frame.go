package protocol

import (
	"encoding/binary"
	"errors"
	"io"
)

// A frame is one WebSocket message: a type byte, the payload length as a
// big-endian uint32, then the payload.
const (
	FrameHeaderSize = 1 + 4
	MaxPayloadSize  = 16 << 20
)

// FrameType tags the payload of a frame.
type FrameType uint8

const (
	FramePatches FrameType = iota + 1 // op batch, server to client
	FrameEvent                        // listener event, client to server
	FrameError                        // ErrorMessage, either direction
)

var frameTypeNames = [...]string{
	FramePatches: "Patches",
	FrameEvent:   "Event",
	FrameError:   "Error",
}

func (ft FrameType) valid() bool { return ft >= FramePatches && ft <= FrameError }

func (ft FrameType) String() string {
	if !ft.valid() {
		return "Unknown"
	}
	return frameTypeNames[ft]
}

var (
	ErrFrameTooLarge    = errors.New("protocol: frame payload too large")
	ErrInvalidFrameType = errors.New("protocol: invalid frame type")
)

type Frame struct {
	Type    FrameType
	Payload []byte
}

func NewFrame(ft FrameType, payload []byte) *Frame {
	return &Frame{Type: ft, Payload: payload}
}

// Encode returns the header followed by the payload.
func (f *Frame) Encode() []byte {
	out := make([]byte, FrameHeaderSize, FrameHeaderSize+len(f.Payload))
	out[0] = byte(f.Type)
	binary.BigEndian.PutUint32(out[1:], uint32(len(f.Payload)))
	return append(out, f.Payload...)
}

// parseHeader validates a frame header and returns the type and payload size.
func parseHeader(h []byte) (FrameType, int, error) {
	if len(h) < FrameHeaderSize {
		return 0, 0, io.ErrUnexpectedEOF
	}
	ft := FrameType(h[0])
	if !ft.valid() {
		return 0, 0, ErrInvalidFrameType
	}
	n := binary.BigEndian.Uint32(h[1:FrameHeaderSize])
	if n > MaxPayloadSize {
		return 0, 0, ErrFrameTooLarge
	}
	return ft, int(n), nil
}

// DecodeFrame parses data, which must hold exactly one frame. The payload is
// copied.
func DecodeFrame(data []byte) (*Frame, error) {
	ft, n, err := parseHeader(data)
	if err != nil {
		return nil, err
	}
	body := data[FrameHeaderSize:]
	if len(body) != n {
		return nil, io.ErrUnexpectedEOF
	}
	return &Frame{Type: ft, Payload: append([]byte{}, body...)}, nil
}

// ReadFrame reads one frame from r. A reader that is empty before the header
// yields io.EOF.
func ReadFrame(r io.Reader) (*Frame, error) {
	var h [FrameHeaderSize]byte
	if _, err := io.ReadFull(r, h[:]); err != nil {
		return nil, err
	}
	ft, n, err := parseHeader(h[:])
	if err != nil {
		return nil, err
	}
	f := &Frame{Type: ft, Payload: make([]byte, n)}
	if _, err := io.ReadFull(r, f.Payload); err != nil {
		return nil, err
	}
	return f, nil
}

// WriteFrame writes f to w in one Write call.
func WriteFrame(w io.Writer, f *Frame) error {
	if len(f.Payload) > MaxPayloadSize {
		return ErrFrameTooLarge
	}
	_, err := w.Write(f.Encode())
	return err
}
