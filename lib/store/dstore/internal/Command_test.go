package internal

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/ValentinKolb/dLock/lib/db"
)

// TestSizeBytes tests the SizeBytes method
func TestSizeBytes(t *testing.T) {
	tests := []struct {
		name     string
		command  Command
		expected int
	}{
		{
			name:     "Command with key and value",
			command:  Command{Type: CommandTGetSet, Key: "testkey", Value: []byte("1760000000.5")},
			expected: 1 + 4 + 7 + 12, // Type + KeyLen + Key + Value
		},
		{
			name:     "Command without value",
			command:  Command{Type: CommandTDelete, Key: "testkey"},
			expected: 1 + 4 + 7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if size := tt.command.SizeBytes(); size != tt.expected {
				t.Errorf("SizeBytes() = %v, want %v", size, tt.expected)
			}
		})
	}
}

// TestSerializeDeserialize tests both Serialize and Deserialize methods
func TestSerializeDeserialize(t *testing.T) {
	tests := []struct {
		name    string
		command Command
	}{
		{"SetIfUnset with token", Command{Type: CommandTSetIfUnset, Key: "orders:42:_lock", Value: []byte("1760000000.123456")}},
		{"Delete without value", Command{Type: CommandTDelete, Key: "orders:42:_lock"}},
		{"Empty key", Command{Type: CommandTGetSet, Key: "", Value: []byte("v")}},
		{"Binary value", Command{Type: CommandTGetSet, Key: "binary", Value: []byte{0, 1, 2, 3, 254, 255}}},
		{"Unicode key", Command{Type: CommandTSetIfUnset, Key: "你好世界", Value: []byte("unicode test")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.command.Serialize()
			if tt.command.SizeBytes() != len(data) {
				t.Errorf("SizeBytes() = %d, but serialized data length = %d", tt.command.SizeBytes(), len(data))
			}

			var got Command
			if err := got.Deserialize(data); err != nil {
				t.Fatalf("Deserialize() error = %v", err)
			}
			if got.Type != tt.command.Type {
				t.Errorf("Type mismatch: got %v, want %v", got.Type, tt.command.Type)
			}
			if got.Key != tt.command.Key {
				t.Errorf("Key mismatch: got %q, want %q", got.Key, tt.command.Key)
			}
			if !bytes.Equal(got.Value, tt.command.Value) {
				t.Errorf("Value mismatch: got %v, want %v", got.Value, tt.command.Value)
			}
		})
	}
}

// TestDeserializeErrors tests error cases in Deserialize
func TestDeserializeErrors(t *testing.T) {
	tooLong := make([]byte, headerSize)
	tooLong[0] = byte(CommandTGetSet)
	binary.BigEndian.PutUint32(tooLong[1:headerSize], 1000)

	tests := []struct {
		name        string
		data        []byte
		expectedErr string
	}{
		{"Empty data", []byte{}, "data too short for command"},
		{"Data too short", []byte{1, 2}, "data too short for command"},
		{"Invalid key length", tooLong, "data too short for key of length 1000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cmd Command
			err := cmd.Deserialize(tt.data)
			if err == nil {
				t.Fatalf("Expected error but got nil")
			}
			if err.Error() != tt.expectedErr {
				t.Errorf("Expected error %q, got %q", tt.expectedErr, err.Error())
			}
		})
	}
}

// TestBinaryFormat tests the exact binary format of serialized commands
func TestBinaryFormat(t *testing.T) {
	cmd := Command{Type: CommandTGetSet, Key: "testkey", Value: []byte("testvalue")}

	expected := make([]byte, cmd.SizeBytes())
	expected[0] = byte(CommandTGetSet)
	binary.BigEndian.PutUint32(expected[1:5], 7)
	copy(expected[5:12], "testkey")
	copy(expected[12:], "testvalue")

	if serialized := cmd.Serialize(); !bytes.Equal(serialized, expected) {
		t.Errorf("Binary format does not match:\nGot:      %v\nExpected: %v", serialized, expected)
	}
}

func TestToDBFeature(t *testing.T) {
	want := map[CommandType]db.Feature{
		CommandTSetIfUnset: db.FeatureSetIfUnset,
		CommandTGetSet:     db.FeatureGetSet,
		CommandTDelete:     db.FeatureDelete,
	}
	for ct, feature := range want {
		got, err := ct.ToDBFeature()
		if err != nil || got != feature {
			t.Errorf("%s.ToDBFeature() = %v, %v; want %v", ct, got, err, feature)
		}
	}
	if _, err := CommandType(42).ToDBFeature(); err == nil {
		t.Errorf("expected error for unknown command type")
	}
}

func TestResultEncoding(t *testing.T) {
	tests := []struct {
		name  string
		ok    bool
		value []byte
	}{
		{"written", true, nil},
		{"not written", false, nil},
		{"previous value", true, []byte("1760000000.5")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, value, err := DecodeResult(EncodeResult(tt.ok, tt.value))
			if err != nil {
				t.Fatalf("DecodeResult() error = %v", err)
			}
			if ok != tt.ok || !bytes.Equal(value, tt.value) {
				t.Errorf("got (%v, %q), want (%v, %q)", ok, value, tt.ok, tt.value)
			}
		})
	}

	if _, _, err := DecodeResult(nil); err == nil {
		t.Errorf("expected error for empty result")
	}
	if _, _, err := DecodeResult([]byte{7}); err == nil {
		t.Errorf("expected error for invalid status")
	}
}
