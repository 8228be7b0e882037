package protocol

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEventRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		ev   *Event
	}{
		{"no data", &Event{Seq: 1, Listener: 3, Target: 12, Type: "click"}},
		{"with data", &Event{Seq: 1 << 40, Listener: 1, Target: 2, Type: "input", Data: map[string]string{
			"value": "hello",
			"key":   "o",
		}}},
		{"empty type", &Event{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeEvent(EncodeEvent(tc.ev))
			if err != nil {
				t.Fatalf("DecodeEvent() error = %v", err)
			}
			if diff := cmp.Diff(tc.ev, got); diff != "" {
				t.Errorf("round trip (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEventEncodingIsDeterministic(t *testing.T) {
	ev := &Event{Type: "change", Data: map[string]string{"c": "3", "a": "1", "b": "2"}}
	first := EncodeEvent(ev)
	for i := 0; i < 20; i++ {
		if !bytes.Equal(EncodeEvent(ev), first) {
			t.Fatal("EncodeEvent() output differs between calls")
		}
	}
}

func TestDecodeEventErrors(t *testing.T) {
	valid := EncodeEvent(&Event{Seq: 1, Listener: 1, Target: 1, Type: "click", Data: map[string]string{"k": "v"}})
	if _, err := DecodeEvent(valid[:len(valid)-2]); err != io.ErrUnexpectedEOF {
		t.Errorf("truncated: error = %v, want io.ErrUnexpectedEOF", err)
	}

	e := NewEncoder()
	e.WriteUvarint(1)
	e.WriteUvarint(1)
	e.WriteUvarint(1)
	e.WriteString("click")
	e.WriteUvarint(MaxEventData + 1)
	if _, err := DecodeEvent(e.Bytes()); !errors.Is(err, ErrCollectionTooLarge) {
		t.Errorf("too much data: error = %v, want ErrCollectionTooLarge", err)
	}
}

func TestHostEvent(t *testing.T) {
	ev := &Event{Listener: 4, Target: 9, Type: "submit", Data: map[string]string{"a": "b"}}
	he := ev.HostEvent()
	if he.Type != "submit" || he.Target != NodeID(9) || he.Data["a"] != "b" {
		t.Errorf("HostEvent() = %+v", he)
	}
}
