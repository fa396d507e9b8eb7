package capability

import "testing"

func TestDeriveIDStable(t *testing.T) {
	a := DeriveID("sdv.core.Lifecycle")
	b := DeriveID("sdv.core.Lifecycle")
	if a != b {
		t.Fatalf("DeriveID not stable: %v != %v", a, b)
	}
}

func TestDeriveIDDistinct(t *testing.T) {
	a := DeriveID("sdv.core.Lifecycle")
	b := DeriveID("sdv.core.ClassInfo")
	if a == b {
		t.Fatalf("DeriveID collided for distinct names")
	}
}

func TestDeriveIDNeverNil(t *testing.T) {
	for _, name := range []string{"", "a", "sdv.core.Lifecycle"} {
		if DeriveID(name) == NilID {
			t.Fatalf("DeriveID(%q) == NilID", name)
		}
	}
}
