package notify

import "testing"

func TestFlashDrainsInOrder(t *testing.T) {
	f := NewFlash()
	f.Success("saved")
	f.Error("")
	f.Error("boom")

	got := f.Drain()
	want := []Message{{KindSuccess, "saved"}, {KindError, "boom"}}
	if len(got) != len(want) {
		t.Fatalf("Drain() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Drain()[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	if again := f.Drain(); len(again) != 0 {
		t.Fatalf("second Drain() = %v, want empty", again)
	}
}

func TestMulti(t *testing.T) {
	a, b := NewFlash(), NewFlash()
	n := Multi(a, b, Discard)
	n.Error("nope")

	if len(a.Drain()) != 1 || len(b.Drain()) != 1 {
		t.Fatal("message not fanned out")
	}
}
