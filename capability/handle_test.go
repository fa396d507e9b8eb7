package capability

import "testing"

type fakeGreeter struct{ greeting string }

func (f *fakeGreeter) Greet() string { return f.greeting }

func TestNewHandleNullCases(t *testing.T) {
	if !NewHandle(NilID, &fakeGreeter{}).IsNull() {
		t.Fatalf("handle with NilID should collapse to null")
	}
	if !NewHandle(DeriveID("x"), nil).IsNull() {
		t.Fatalf("handle with nil pointer should collapse to null")
	}
	if !NullHandle.IsNull() {
		t.Fatalf("zero value handle must be null")
	}
}

func TestGetMatchesIDAndType(t *testing.T) {
	id := DeriveID("demo.Greeter")
	h := NewHandle(id, &fakeGreeter{greeting: "hi"})

	g, ok := Get[*fakeGreeter](h, id)
	if !ok || g.greeting != "hi" {
		t.Fatalf("Get with matching id and type failed: %v %v", g, ok)
	}

	if _, ok := Get[*fakeGreeter](h, DeriveID("other")); ok {
		t.Fatalf("Get must fail on id mismatch")
	}

	type other struct{}
	if _, ok := Get[*other](h, id); ok {
		t.Fatalf("Get must fail on type mismatch even with matching id")
	}
}

func TestHandleEqual(t *testing.T) {
	id := DeriveID("demo.Greeter")
	ptr := &fakeGreeter{}
	a := NewHandle(id, ptr)
	b := NewHandle(id, ptr)
	if !a.Equal(b) {
		t.Fatalf("handles over the same (id, pointer) must be equal")
	}
	c := NewHandle(id, &fakeGreeter{})
	if a.Equal(c) {
		t.Fatalf("handles over distinct pointers must not be equal")
	}
}
