package utils

import "testing"

func TestComputeDistanceIdenticalIsZero(t *testing.T) {
	if d := ComputeDistance("release", "release"); d != 0 {
		t.Fatalf("got %d, want 0", d)
	}
}

func TestComputeDistanceCaseInsensitive(t *testing.T) {
	if d := ComputeDistance("Release", "release"); d != 0 {
		t.Fatalf("got %d, want 0", d)
	}
}

func TestComputeDistanceCountsEdits(t *testing.T) {
	if d := ComputeDistance("kitten", "sitting"); d != 3 {
		t.Fatalf("got %d, want 3", d)
	}
}

func TestComputeDistanceEmptyStringIsLengthOfOther(t *testing.T) {
	if d := ComputeDistance("", "abc"); d != 3 {
		t.Fatalf("got %d, want 3", d)
	}
	if d := ComputeDistance("abc", ""); d != 3 {
		t.Fatalf("got %d, want 3", d)
	}
}
