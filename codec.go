package vhash

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

const (
	keyField   protowire.Number = 1
	valueField protowire.Number = 2
)

// encodeEntry gives a key, and for maps its value, a canonical encoding:
// each marshalled body as a length-delimited protobuf field. Sets omit the
// value field, so a set member and a map key with a nil value encode
// differently.
func encodeEntry(key interface{}, value interface{}, hasValue bool, marshal func(interface{}) ([]byte, error)) ([]byte, error) {
	keyBytes, err := marshal(key)
	if err != nil {
		return nil, fmt.Errorf("marshal key %v: %w", key, err)
	}
	buf := protowire.AppendTag(nil, keyField, protowire.BytesType)
	buf = protowire.AppendBytes(buf, keyBytes)
	if !hasValue {
		return buf, nil
	}
	valueBytes, err := marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal value for key %v: %w", key, err)
	}
	buf = protowire.AppendTag(buf, valueField, protowire.BytesType)
	buf = protowire.AppendBytes(buf, valueBytes)
	return buf, nil
}

// decodeEntry splits an encoding made by encodeEntry back into its
// marshalled bodies.
func decodeEntry(buf []byte) (keyBytes, valueBytes []byte, err error) {
	for len(buf) > 0 {
		num, typ, n := protowire.ConsumeTag(buf)
		if n < 0 {
			return nil, nil, fmt.Errorf("entry tag: %w", protowire.ParseError(n))
		}
		buf = buf[n:]
		if typ != protowire.BytesType {
			return nil, nil, fmt.Errorf("entry field %d: unexpected wire type %d", num, typ)
		}
		body, n := protowire.ConsumeBytes(buf)
		if n < 0 {
			return nil, nil, fmt.Errorf("entry field %d: %w", num, protowire.ParseError(n))
		}
		buf = buf[n:]
		switch num {
		case keyField:
			keyBytes = body
		case valueField:
			valueBytes = body
		default:
			return nil, nil, fmt.Errorf("unknown entry field %d", num)
		}
	}
	if keyBytes == nil {
		return nil, nil, fmt.Errorf("entry has no key")
	}
	return keyBytes, valueBytes, nil
}
