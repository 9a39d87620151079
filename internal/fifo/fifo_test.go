package fifo

import "testing"

func TestFifoWriteRead(t *testing.T) {
	f := NewFifo(16)
	n := f.Write([]byte{1, 2, 3, 4, 5}, nil)
	if n != 5 {
		t.Fatalf("wrote %d, want 5", n)
	}
	if occ := f.GetOccupied(); occ != 5 {
		t.Fatalf("occupied %d, want 5", occ)
	}
	out := make([]byte, 5)
	n = f.Read(out)
	if n != 5 {
		t.Fatalf("read %d, want 5", n)
	}
	for i, b := range out {
		if int(b) != i+1 {
			t.Errorf("out[%d] = %d, want %d", i, b, i+1)
		}
	}
}

func TestFifoWriteStopsAtCapacity(t *testing.T) {
	f := NewFifo(4)
	n := f.Write([]byte{1, 2, 3, 4, 5}, nil)
	if n != 3 {
		t.Fatalf("wrote %d, want 3 (capacity 4 minus one reserved slot)", n)
	}
}

func TestFifoReset(t *testing.T) {
	f := NewFifo(8)
	f.Write([]byte{1, 2, 3}, nil)
	f.Reset()
	if occ := f.GetOccupied(); occ != 0 {
		t.Fatalf("occupied after reset %d, want 0", occ)
	}
}
