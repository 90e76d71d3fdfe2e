package serializer

import (
	"testing"

	"github.com/ValentinKolb/dLock/lib/store"
	"github.com/ValentinKolb/dLock/rpc/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() IRPCSerializer{
	"JSON":   NewJSONSerializer,
	"GOB":    NewGOBSerializer,
	"Binary": NewBinarySerializer,
}

// testMessages creates a set of test messages with different fields filled
func testMessages() []common.Message {
	return []common.Message{
		// Basic message with just a type
		{MsgType: common.MsgTSuccess},

		// SetIfUnset request carrying a token
		{
			MsgType: common.MsgTKVSetIfUnset,
			Key:     "orders:42:_lock",
			Value:   []byte("1760000001.25"),
		},

		// SetIfUnset response (written)
		{
			MsgType: common.MsgTKVSetIfUnset,
			Ok:      true,
		},

		// GetSet response with the previous token
		{
			MsgType: common.MsgTKVGetSet,
			Value:   []byte("1760000000.5"),
			Ok:      true,
		},

		// Store error response with return code
		{
			MsgType: common.MsgTKVGet,
			Err:     "StoreError (code Unavailable): no leader",
			Code:    uint64(store.RetCUnavailable),
		},

		// Message with all fields filled
		{
			MsgType: common.MsgTCustom,
			Key:     "complete",
			Value:   []byte{0, 1, 2, 255},
			Ok:      true,
			Err:     "boom",
			Code:    uint64(store.RetCInternalError),
			Meta:    []byte("test-meta-data"),
		},
	}
}

// TestSerializerRoundTrip tests that messages can be serialized and deserialized correctly
func TestSerializerRoundTrip(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for i, msg := range testMessages() {
				data, err := serializer.Serialize(msg)
				require.NoError(t, err, "message %d", i)

				var result common.Message
				require.NoError(t, serializer.Deserialize(data, &result), "message %d", i)
				assert.Equal(t, msg, result, "message %d", i)
			}
		})
	}
}

// TestDeserializeResetsTarget checks that fields of a reused message do not leak into the next one
func TestDeserializeResetsTarget(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			data, err := serializer.Serialize(common.Message{MsgType: common.MsgTKVDelete, Key: "k"})
			require.NoError(t, err)

			result := common.Message{Value: []byte("stale"), Ok: true, Err: "old", Code: 2}
			require.NoError(t, serializer.Deserialize(data, &result))
			assert.Equal(t, common.Message{MsgType: common.MsgTKVDelete, Key: "k"}, result)
		})
	}
}

// TestMessageTypes tests each message type with each serializer
func TestMessageTypes(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			// MsgTUnknown is skipped since it has no JSON name
			for msgType := common.MsgTSuccess; msgType <= common.MsgTCustom; msgType++ {
				data, err := serializer.Serialize(common.Message{MsgType: msgType})
				require.NoError(t, err, msgType.String())

				var result common.Message
				require.NoError(t, serializer.Deserialize(data, &result), msgType.String())
				assert.Equal(t, msgType, result.MsgType)
			}
		})
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "gob", "binary"} {
		s, err := ByName(name)
		require.NoError(t, err)
		assert.NotNil(t, s)
	}

	_, err := ByName("xml")
	assert.Error(t, err)
}

// TestBinarySerializerSpecific tests specific edge cases for the binary serializer
func TestBinarySerializerSpecific(t *testing.T) {
	serializer := NewBinarySerializer()

	testCases := []struct {
		name string
		msg  common.Message
	}{
		{
			name: "Empty message",
			msg:  common.Message{},
		},
		{
			name: "Empty value slice but not nil",
			msg: common.Message{
				MsgType: common.MsgTKVGetSet,
				Key:     "test",
				Value:   []byte{},
			},
		},
		{
			name: "Ok without value (present but empty is not the same as absent)",
			msg: common.Message{
				MsgType: common.MsgTKVGet,
				Ok:      true,
			},
		},
		{
			name: "Empty meta slice but not nil",
			msg: common.Message{
				MsgType: common.MsgTCustom,
				Meta:    []byte{},
			},
		},
		{
			name: "Large code",
			msg: common.Message{
				MsgType: common.MsgTError,
				Code:    1 << 40,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := serializer.Serialize(tc.msg)
			require.NoError(t, err)

			var result common.Message
			require.NoError(t, serializer.Deserialize(data, &result))

			// assert.Equal distinguishes nil from empty slices
			assert.Equal(t, tc.msg, result)
		})
	}
}

// TestInvalidBinaryData tests how the binary serializer handles corrupt or invalid data
func TestInvalidBinaryData(t *testing.T) {
	serializer := NewBinarySerializer()

	testCases := []struct {
		name        string
		data        []byte
		expectError bool
	}{
		{name: "Empty data", data: []byte{}, expectError: true},
		{name: "Too short header", data: []byte{1}, expectError: true},
		{name: "Valid header only", data: []byte{1, 0}, expectError: false},
		{name: "Invalid length for key", data: []byte{1, hasKey, 0, 0, 0, 5, 'a', 'b', 'c'}, expectError: true},
		{name: "Invalid length for value", data: []byte{1, hasValue, 0, 0, 0, 10}, expectError: true},
		{name: "Missing ok byte", data: []byte{1, hasOk}, expectError: true},
		{name: "Missing code", data: []byte{1, hasCode}, expectError: true},
		{name: "Truncated varint", data: []byte{1, hasCode, 0x80}, expectError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var msg common.Message
			err := serializer.Deserialize(tc.data, &msg)
			if tc.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
