package util

import "testing"

func TestNormalize(t *testing.T) {
	composed := "café"    // precomposed e-acute
	decomposed := "café" // e + combining acute
	if Normalize(composed) != Normalize(decomposed) {
		t.Errorf("expected %q and %q to normalize identically", composed, decomposed)
	}

	if Normalize("plain ascii") != "plain ascii" {
		t.Error("ASCII input should be unchanged")
	}
}
