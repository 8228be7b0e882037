package protocol

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	rerrors "github.com/vango-dev/reconcile/internal/errors"
	"github.com/vango-dev/reconcile/pkg/host"
)

func allOps() []Op {
	return []Op{
		{Kind: host.OpCreateElement, Target: 1, Name: "div"},
		{Kind: host.OpCreateText, Target: 2, Value: "hello"},
		{Kind: host.OpSetText, Target: 2, Value: "world"},
		{Kind: host.OpSetAttribute, Target: 1, Name: "class", Value: "a b"},
		{Kind: host.OpRemoveAttribute, Target: 1, Name: "class"},
		{Kind: host.OpSetStyleProperty, Target: 1, Name: "color", Value: "red"},
		{Kind: host.OpClearStyleProperty, Target: 1, Name: "color"},
		{Kind: host.OpAddEventHandler, Target: 1, Name: "click", Listener: 7},
		{Kind: host.OpRemoveEventHandler, Target: 1, Name: "click", Listener: 7},
		{Kind: host.OpAppendChild, Parent: 1, Target: 2},
		{Kind: host.OpInsertBefore, Parent: RootID, Target: 300, Ref: 1},
		{Kind: host.OpRemoveChild, Parent: 1, Target: 2},
	}
}

func TestBatchRoundTrip(t *testing.T) {
	ops := allOps()
	got, err := DecodeBatch(EncodeBatch(ops))
	if err != nil {
		t.Fatalf("DecodeBatch() error = %v", err)
	}
	if diff := cmp.Diff(ops, got); diff != "" {
		t.Errorf("round trip (-want +got):\n%s", diff)
	}

	covered := make(map[host.OpKind]bool)
	for _, op := range ops {
		covered[op.Kind] = true
	}
	for _, k := range host.AllOpKinds {
		if !covered[k] {
			t.Errorf("op kind %v not covered", k)
		}
	}
}

func TestEmptyBatch(t *testing.T) {
	data := EncodeBatch(nil)
	if len(data) != 1 || data[0] != 0 {
		t.Errorf("EncodeBatch(nil) = %v, want [0]", data)
	}
	ops, err := DecodeBatch(data)
	if err != nil || len(ops) != 0 {
		t.Errorf("DecodeBatch([0]) = %v, %v; want empty, nil", ops, err)
	}
}

func TestWriterReset(t *testing.T) {
	var w Writer
	w.Write(Op{Kind: host.OpCreateText, Target: 1, Value: "a"})
	if w.Len() != 1 {
		t.Errorf("Len() = %d, want 1", w.Len())
	}
	w.Reset()
	w.Write(Op{Kind: host.OpCreateText, Target: 2, Value: "b"})

	ops, err := DecodeBatch(w.Bytes())
	if err != nil {
		t.Fatalf("DecodeBatch() error = %v", err)
	}
	want := []Op{{Kind: host.OpCreateText, Target: 2, Value: "b"}}
	if diff := cmp.Diff(want, ops); diff != "" {
		t.Errorf("ops after Reset (-want +got):\n%s", diff)
	}
}

func TestWriterPanicsOnUnknownKind(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Write() with unknown kind should panic")
		}
	}()
	var w Writer
	w.Write(Op{Kind: host.OpKind(0x7F)})
}

func TestDecodeBatchErrors(t *testing.T) {
	valid := EncodeBatch(allOps())

	tests := []struct {
		name string
		data []byte
		code string
		want error
	}{
		{"empty", []byte{}, "P001", ErrMalformedBatch},
		{"truncated", valid[:len(valid)-1], "P001", ErrMalformedBatch},
		{"trailing", append(append([]byte{}, valid...), 0x00), "P001", ErrMalformedBatch},
		{"count exceeds input", []byte{0x05, byte(host.OpCreateText), 0x01, 0x00}, "P001", ErrMalformedBatch},
		{"unknown opcode", []byte{0x01, 0x7F}, "P002", ErrUnknownOpcode},
		{"id overflow", []byte{0x01, byte(host.OpCreateText), 0xFF, 0xFF, 0xFF, 0xFF, 0x1F, 0x00}, "P001", ErrVarintOverflow},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeBatch(tc.data)
			if !errors.Is(err, tc.want) {
				t.Fatalf("DecodeBatch() error = %v, want %v", err, tc.want)
			}
			if got := rerrors.Code(err); got != tc.code {
				t.Errorf("Code() = %q, want %q", got, tc.code)
			}
		})
	}
}

func TestOpString(t *testing.T) {
	tests := []struct {
		op   Op
		want string
	}{
		{Op{Kind: host.OpCreateElement, Target: 1, Name: "li"}, `CreateElement("li")`},
		{Op{Kind: host.OpSetText, Target: 4, Value: "x"}, `SetText(#4, "x")`},
		{Op{Kind: host.OpInsertBefore, Parent: 0, Target: 3, Ref: 2}, "InsertBefore(#0, #3, #2)"},
		{Op{Kind: host.OpAddEventHandler, Target: 1, Name: "click", Listener: 2}, "AddEventHandler(#1, click, L2)"},
	}
	for _, tc := range tests {
		if got := tc.op.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}

func BenchmarkEncodeBatch(b *testing.B) {
	ops := allOps()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = EncodeBatch(ops)
	}
}

func BenchmarkDecodeBatch(b *testing.B) {
	data := EncodeBatch(allOps())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = DecodeBatch(data)
	}
}
