package rules

import "testing"

func TestPackUnpackRoundTrip(t *testing.T) {
	v := NewVariant(6, 4)
	state := v.Opening()
	state.Cells[3] = 7
	state.Side = SideB

	packed := Pack(v, state)
	if len(packed) != PackedSize(v) {
		t.Fatalf("Pack produced %d bytes, want %d", len(packed), PackedSize(v))
	}

	got := Unpack(v, packed)
	if got.Side != state.Side {
		t.Fatalf("Unpack side = %v, want %v", got.Side, state.Side)
	}
	for i := range state.Cells {
		if got.Cells[i] != state.Cells[i] {
			t.Fatalf("Unpack cell %d = %d, want %d", i, got.Cells[i], state.Cells[i])
		}
	}
}

func TestPackedSizeKalah6x4(t *testing.T) {
	v := NewVariant(6, 4)
	if got := PackedSize(v); got != 9 {
		t.Fatalf("PackedSize(Kalah(6,4)) = %d, want 9", got)
	}
}
