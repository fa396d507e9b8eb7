package module

import (
	"testing"

	"github.com/eclipse-openvehicle-api/openvehicle-api-sub008/object"
)

func TestClassListRoundtrip(t *testing.T) {
	classes := []object.ClassDescriptor{
		{
			Kind:                object.KindBasicService,
			ClassName:           "demo.Svc",
			Aliases:             []string{"demo.Service"},
			Singleton:           true,
			DefaultInstanceName: "demo.Svc/default",
			Dependencies:        []string{"demo.Dev"},
		},
		{Kind: object.KindUtility, ClassName: "demo.Foo"},
	}
	buf, err := EncodeClassList(classes)
	if err != nil {
		t.Fatalf("EncodeClassList: %v", err)
	}
	got, err := DecodeClassList(buf)
	if err != nil {
		t.Fatalf("DecodeClassList: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(got) = %d, want 2", len(got))
	}
	if got[0].ClassName != "demo.Svc" || !got[0].Singleton || got[0].DefaultInstanceName != "demo.Svc/default" {
		t.Fatalf("got[0] = %+v", got[0])
	}
	if len(got[0].Aliases) != 1 || got[0].Aliases[0] != "demo.Service" {
		t.Fatalf("got[0].Aliases = %v", got[0].Aliases)
	}
	if len(got[0].Dependencies) != 1 || got[0].Dependencies[0] != "demo.Dev" {
		t.Fatalf("got[0].Dependencies = %v", got[0].Dependencies)
	}
	if got[1].ClassName != "demo.Foo" || got[1].Singleton {
		t.Fatalf("got[1] = %+v", got[1])
	}
}

func TestEncodeClassListEmpty(t *testing.T) {
	buf, err := EncodeClassList(nil)
	if err != nil {
		t.Fatalf("EncodeClassList(nil): %v", err)
	}
	got, err := DecodeClassList(buf)
	if err != nil {
		t.Fatalf("DecodeClassList: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("len(got) = %d, want 0", len(got))
	}
}

func TestConfigRoundtrip(t *testing.T) {
	buf, err := EncodeConfig("level=info;port=9")
	if err != nil {
		t.Fatalf("EncodeConfig: %v", err)
	}
	got, err := DecodeConfig(buf)
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	if got != "level=info;port=9" {
		t.Fatalf("got = %q", got)
	}
}

func TestConfigRoundtripEmptyString(t *testing.T) {
	buf, err := EncodeConfig("")
	if err != nil {
		t.Fatalf("EncodeConfig: %v", err)
	}
	got, err := DecodeConfig(buf)
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	if got != "" {
		t.Fatalf("got = %q, want empty string", got)
	}
}
