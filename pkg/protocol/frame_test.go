package protocol

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFrameRoundTrip(t *testing.T) {
	frames := []*Frame{
		NewFrame(FrameEvent, []byte{}),
		NewFrame(FramePatches, EncodeBatch(allOps())),
		NewFrame(FrameError, EncodeErrorMessage(&ErrorMessage{Code: "P002", Message: "stale"})),
	}
	for _, f := range frames {
		t.Run(f.Type.String(), func(t *testing.T) {
			data := f.Encode()
			if len(data) != FrameHeaderSize+len(f.Payload) {
				t.Errorf("encoded %d bytes, want %d", len(data), FrameHeaderSize+len(f.Payload))
			}
			got, err := DecodeFrame(data)
			if err != nil {
				t.Fatalf("DecodeFrame: %v", err)
			}
			if diff := cmp.Diff(f, got); diff != "" {
				t.Errorf("DecodeFrame mismatch (-want +got):\n%s", diff)
			}
			if len(f.Payload) > 0 {
				data[FrameHeaderSize] ^= 0xff
				if got.Payload[0] == data[FrameHeaderSize] {
					t.Error("decoded payload aliases the input")
				}
			}
		})
	}
}

func TestDecodeFrameErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, io.ErrUnexpectedEOF},
		{"short header", []byte{1, 0}, io.ErrUnexpectedEOF},
		{"short payload", []byte{1, 0, 0, 0, 16}, io.ErrUnexpectedEOF},
		{"trailing bytes", []byte{1, 0, 0, 0, 0, 0xff}, io.ErrUnexpectedEOF},
		{"type zero", []byte{0, 0, 0, 0, 0}, ErrInvalidFrameType},
		{"type past error", []byte{4, 0, 0, 0, 0}, ErrInvalidFrameType},
		{"too large", []byte{1, 0xff, 0xff, 0xff, 0xff}, ErrFrameTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeFrame(tt.data); !errors.Is(err, tt.want) {
				t.Errorf("DecodeFrame(%x) = %v, want %v", tt.data, err, tt.want)
			}
		})
	}
}

func TestFrameStream(t *testing.T) {
	var buf bytes.Buffer
	want := []*Frame{
		NewFrame(FramePatches, []byte("one")),
		NewFrame(FrameEvent, []byte{}),
		NewFrame(FrameError, []byte("three")),
	}
	for _, f := range want {
		if err := WriteFrame(&buf, f); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
	}

	var got []*Frame
	for {
		f, err := ReadFrame(&buf)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ReadFrame after %d frames: %v", len(got), err)
		}
		got = append(got, f)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}
}

func TestReadFrameErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"short header", []byte{1, 0}, io.ErrUnexpectedEOF},
		{"short payload", []byte{1, 0, 0, 0, 5, 'a', 'b'}, io.ErrUnexpectedEOF},
		{"bad type", []byte{7, 0, 0, 0, 0}, ErrInvalidFrameType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadFrame(bytes.NewReader(tt.data)); !errors.Is(err, tt.want) {
				t.Errorf("ReadFrame = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestWriteFrameTooLarge(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, NewFrame(FramePatches, make([]byte, MaxPayloadSize+1))); err != ErrFrameTooLarge {
		t.Errorf("WriteFrame = %v, want ErrFrameTooLarge", err)
	}
	if buf.Len() != 0 {
		t.Errorf("wrote %d bytes for a rejected frame", buf.Len())
	}
}

func TestFrameTypeString(t *testing.T) {
	got := []string{FramePatches.String(), FrameEvent.String(), FrameError.String(), FrameType(0).String(), FrameType(200).String()}
	want := []string{"Patches", "Event", "Error", "Unknown", "Unknown"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("String mismatch (-want +got):\n%s", diff)
	}
}
