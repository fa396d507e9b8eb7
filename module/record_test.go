package module

import (
	"testing"

	"github.com/eclipse-openvehicle-api/openvehicle-api-sub008/object"
)

func TestRecordLiveCountAndHasActiveObjects(t *testing.T) {
	r := &Record{Classes: []object.ClassDescriptor{{ClassName: "demo.Foo"}}}
	if r.HasActiveObjects() {
		t.Fatalf("a fresh record must report no active objects")
	}
	r.incrLive()
	if r.LiveCount() != 1 {
		t.Fatalf("LiveCount = %d, want 1", r.LiveCount())
	}
	if !r.HasActiveObjects() {
		t.Fatalf("HasActiveObjects must be true once LiveCount > 0")
	}
	r.decrLive()
	if r.HasActiveObjects() {
		t.Fatalf("HasActiveObjects must be false once LiveCount returns to 0")
	}
}

func TestRecordHasActiveObjectsDefersToFactory(t *testing.T) {
	r := &Record{Factory: &fakeFactory{live: true}}
	if !r.HasActiveObjects() {
		t.Fatalf("HasActiveObjects must defer to the factory's own report when LiveCount is 0")
	}
}

func TestRecordClassByNameMatchesAliases(t *testing.T) {
	r := &Record{Classes: []object.ClassDescriptor{
		{ClassName: "demo.Svc", Aliases: []string{"demo.Service"}},
	}}
	if _, ok := r.ClassByName("demo.Service"); !ok {
		t.Fatalf("ClassByName must match an alias")
	}
	if _, ok := r.ClassByName("demo.Missing"); ok {
		t.Fatalf("ClassByName must not match an unrelated name")
	}
}
