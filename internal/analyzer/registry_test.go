package analyzer

import "testing"

func TestStemmingEnabled(t *testing.T) {
	if StemmingEnabled(OffSentinel) {
		t.Error("StemmingEnabled(OFF) = true, want false")
	}
	if !StemmingEnabled("ru") {
		t.Error("StemmingEnabled(ru) = false, want true")
	}
	if !StemmingEnabled("zz") {
		t.Error("StemmingEnabled(zz) (unsupported but not OFF) = false, want true")
	}
}
