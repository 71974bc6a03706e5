// ABOUTME: NetworkTables 4 binary frame codec
// ABOUTME: Encodes and decodes MessagePack value arrays [id, timestamp, type, value]
package nt

import (
	"bytes"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// TimeSyncID marks a binary message as a clock timestamp exchange instead of a topic value
const TimeSyncID = -1

// BinaryValue is one value update on the wire.
// ID is a pubuid when sent by the client and a topic id when sent by the server.
type BinaryValue struct {
	ID        int64
	Timestamp int64 // microseconds, server clock
	Type      int
	Value     interface{}
}

// EncodeValues packs values into a single binary frame
func EncodeValues(values ...BinaryValue) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)

	for _, v := range values {
		if err := enc.EncodeArrayLen(4); err != nil {
			return nil, err
		}
		if err := enc.EncodeInt(v.ID); err != nil {
			return nil, err
		}
		if err := enc.EncodeInt(v.Timestamp); err != nil {
			return nil, err
		}
		if err := enc.EncodeInt(int64(v.Type)); err != nil {
			return nil, err
		}
		if err := enc.Encode(v.Value); err != nil {
			return nil, fmt.Errorf("failed to encode value for id %d: %w", v.ID, err)
		}
	}

	return buf.Bytes(), nil
}

// DecodeValues unpacks every value array in a binary frame
func DecodeValues(data []byte) ([]BinaryValue, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))

	var values []BinaryValue
	for {
		n, err := dec.DecodeArrayLen()
		if err == io.EOF {
			return values, nil
		}
		if err != nil {
			return values, fmt.Errorf("failed to decode value header: %w", err)
		}
		if n != 4 {
			return values, fmt.Errorf("expected 4-element value array, got %d", n)
		}

		var v BinaryValue
		if v.ID, err = dec.DecodeInt64(); err != nil {
			return values, fmt.Errorf("failed to decode id: %w", err)
		}
		if v.Timestamp, err = dec.DecodeInt64(); err != nil {
			return values, fmt.Errorf("failed to decode timestamp: %w", err)
		}
		if v.Type, err = dec.DecodeInt(); err != nil {
			return values, fmt.Errorf("failed to decode type: %w", err)
		}
		if v.Value, err = dec.DecodeInterface(); err != nil {
			return values, fmt.Errorf("failed to decode value: %w", err)
		}

		values = append(values, v)
	}
}

// toInt64 normalizes the integer types msgpack may decode to
func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	case uint:
		return int64(n), true
	default:
		return 0, false
	}
}
