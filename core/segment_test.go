package core

import "testing"

func TestSegmentRingFIFOAndCapacity(t *testing.T) {
	var r SegmentRing
	for i := uint32(0); i < segmentRingCapacity; i++ {
		if !r.Push(Segment{SeqID: i}) {
			t.Fatalf("push %d should have succeeded", i)
		}
	}
	if r.Push(Segment{SeqID: 999}) {
		t.Fatal("push into full ring should fail")
	}

	for i := uint32(0); i < segmentRingCapacity; i++ {
		seg, ok := r.Pop()
		if !ok || seg.SeqID != i {
			t.Fatalf("pop %d: got seq=%d ok=%v", i, seg.SeqID, ok)
		}
	}
	if _, ok := r.Pop(); ok {
		t.Fatal("pop from empty ring should fail")
	}
}

func TestSegmentRingClearDrainsPending(t *testing.T) {
	var r SegmentRing
	r.Push(Segment{SeqID: 1})
	r.Push(Segment{SeqID: 2})
	r.Clear()
	if r.Len() != 0 {
		t.Fatalf("expected 0 after Clear, got %d", r.Len())
	}
	if !r.Push(Segment{SeqID: 3}) {
		t.Fatal("ring should accept pushes again after Clear")
	}
}
