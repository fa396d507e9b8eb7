package module

import (
	"github.com/ugorji/go/codec"

	"github.com/eclipse-openvehicle-api/openvehicle-api-sub008/object"
)

var mh codec.MsgpackHandle

// wireClassDescriptor is the POD shape of object.ClassDescriptor that
// actually crosses the module boundary (spec.md §9: "Every symbol crossing
// the module boundary must be POD ... length-prefixed UTF-8 byte spans").
// Go's plugin mechanism shares an address space, but the host still encodes
// through this type so a module's class list can never smuggle a live
// pointer or an interface value past the boundary - only the fields spec.md
// names survive the round trip.
type wireClassDescriptor struct {
	Kind                int
	ClassName           string
	Aliases             []string
	Singleton           bool
	DefaultInstanceName string
	Dependencies        []string
}

func toWire(d object.ClassDescriptor) wireClassDescriptor {
	return wireClassDescriptor{
		Kind:                int(d.Kind),
		ClassName:           d.ClassName,
		Aliases:             append([]string(nil), d.Aliases...),
		Singleton:           d.Singleton,
		DefaultInstanceName: d.DefaultInstanceName,
		Dependencies:        append([]string(nil), d.Dependencies...),
	}
}

func fromWire(w wireClassDescriptor) object.ClassDescriptor {
	return object.ClassDescriptor{
		Kind:                object.Kind(w.Kind),
		ClassName:           w.ClassName,
		Aliases:             append([]string(nil), w.Aliases...),
		Singleton:           w.Singleton,
		DefaultInstanceName: w.DefaultInstanceName,
		Dependencies:        append([]string(nil), w.Dependencies...),
	}
}

// EncodeClassList marshals a module's class list into the msgpack byte span
// that crosses the module ABI boundary.
func EncodeClassList(classes []object.ClassDescriptor) ([]byte, error) {
	wire := make([]wireClassDescriptor, len(classes))
	for i, d := range classes {
		wire[i] = toWire(d)
	}
	var buf []byte
	enc := codec.NewEncoderBytes(&buf, &mh)
	if err := enc.Encode(wire); err != nil {
		return nil, err
	}
	return buf, nil
}

// DecodeClassList is the host-side counterpart of EncodeClassList.
func DecodeClassList(buf []byte) ([]object.ClassDescriptor, error) {
	var wire []wireClassDescriptor
	dec := codec.NewDecoderBytes(buf, &mh)
	if err := dec.Decode(&wire); err != nil {
		return nil, err
	}
	classes := make([]object.ClassDescriptor, len(wire))
	for i, w := range wire {
		classes[i] = fromWire(w)
	}
	return classes, nil
}

// classesAcrossWire round-trips classes through Encode/DecodeClassList, the
// host's way of holding every factory - in-process or dynamically loaded -
// to the same POD wire discipline before retaining its class list.
func classesAcrossWire(classes []object.ClassDescriptor) ([]object.ClassDescriptor, error) {
	buf, err := EncodeClassList(classes)
	if err != nil {
		return nil, err
	}
	return DecodeClassList(buf)
}

// EncodeConfig turns the initialize(...) config string into the
// length-prefixed wire form before it crosses into Create. A plain string
// is already a length-prefixed UTF-8 span in Go's runtime representation,
// but running it through the same codec as the rest of the ABI keeps one
// encoding discipline for everything that crosses the boundary.
func EncodeConfig(config string) ([]byte, error) {
	var buf []byte
	enc := codec.NewEncoderBytes(&buf, &mh)
	if err := enc.Encode(config); err != nil {
		return nil, err
	}
	return buf, nil
}

// DecodeConfig is the module-side counterpart of EncodeConfig.
func DecodeConfig(buf []byte) (string, error) {
	var config string
	dec := codec.NewDecoderBytes(buf, &mh)
	if err := dec.Decode(&config); err != nil {
		return "", err
	}
	return config, nil
}
