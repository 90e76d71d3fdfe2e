package common

import (
	"encoding/json"
	"fmt"

	"github.com/ValentinKolb/dLock/lib/store"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single message used for both requests and responses.
// Which fields are used depends on the type of message.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// General fields
	Key   string `json:"key,omitempty"`   // Used for: all store operations
	Value []byte `json:"value,omitempty"` // Used for: SetIfUnset, GetSet (request), Get, GetSet (response)

	// Response only fields
	Ok   bool   `json:"ok,omitempty"`   // Used for: SetIfUnset (written), Get and GetSet (loaded) responses
	Err  string `json:"err,omitempty"`  // Empty if no error, otherwise contains the error message
	Code uint64 `json:"code,omitempty"` // Return code of a failed store operation (store.RetCode)

	// Meta information
	Meta []byte `json:"meta,omitempty"` // Unused, can be used for additional Adapters
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewSetIfUnsetRequest creates a new SetIfUnset request
func NewSetIfUnsetRequest(key string, value []byte) *Message {
	return &Message{
		MsgType: MsgTKVSetIfUnset,
		Key:     key,
		Value:   value,
	}
}

// NewSetIfUnsetResponse creates a new SetIfUnset response
func NewSetIfUnsetResponse(written bool, err error) *Message {
	return withError(&Message{
		MsgType: MsgTKVSetIfUnset,
		Ok:      written,
	}, err)
}

// NewGetRequest creates a new Get request
func NewGetRequest(key string) *Message {
	return &Message{
		MsgType: MsgTKVGet,
		Key:     key,
	}
}

// NewGetResponse creates a new Get response
func NewGetResponse(value []byte, ok bool, err error) *Message {
	return withError(&Message{
		MsgType: MsgTKVGet,
		Ok:      ok,
		Value:   value,
	}, err)
}

// NewGetSetRequest creates a new GetSet request
func NewGetSetRequest(key string, value []byte) *Message {
	return &Message{
		MsgType: MsgTKVGetSet,
		Key:     key,
		Value:   value,
	}
}

// NewGetSetResponse creates a new GetSet response carrying the previous value
func NewGetSetResponse(previous []byte, ok bool, err error) *Message {
	return withError(&Message{
		MsgType: MsgTKVGetSet,
		Ok:      ok,
		Value:   previous,
	}, err)
}

// NewDeleteRequest creates a new Delete request
func NewDeleteRequest(key string) *Message {
	return &Message{
		MsgType: MsgTKVDelete,
		Key:     key,
	}
}

// NewDeleteResponse creates a new Delete response
func NewDeleteResponse(err error) *Message {
	return withError(&Message{
		MsgType: MsgTKVDelete,
	}, err)
}

// NewCustomRequest creates a new Custom request
func NewCustomRequest(meta []byte) *Message {
	return &Message{
		MsgType: MsgTCustom,
		Meta:    meta,
	}
}

// NewCustomResponse creates a new Custom response
func NewCustomResponse(meta []byte, err error) *Message {
	return withError(&Message{
		MsgType: MsgTCustom,
		Meta:    meta,
	}, err)
}

// NewErrorResponse creates a new Error response
func NewErrorResponse(err string) *Message {
	return &Message{
		MsgType: MsgTError,
		Err:     err,
	}
}

// withError sets the error message and return code of msg if err is not nil
func withError(msg *Message, err error) *Message {
	if err == nil {
		return msg
	}
	msg.Err = err.Error()
	msg.Code = uint64(store.CodeOf(err))
	return msg
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

var msgTypeNames = map[MessageType]string{
	MsgTSuccess:      "success",
	MsgTError:        "error",
	MsgTKVSetIfUnset: "setIfUnset",
	MsgTKVGet:        "get",
	MsgTKVGetSet:     "getSet",
	MsgTKVDelete:     "delete",
	MsgTCustom:       "custom",
}

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	if name, ok := msgTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for msgType, name := range msgTypeNames {
		if name == s {
			*t = msgType
			return nil
		}
	}
	return fmt.Errorf("unknown message type: %s", s)
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	// General message types

	MsgTUnknown MessageType = iota
	MsgTSuccess             // Indicates a successful operation
	MsgTError               // Indicates an error occurred

	// IStore operations

	MsgTKVSetIfUnset // Set a key-value pair if not already set
	MsgTKVGet        // Get a value by key
	MsgTKVGetSet     // Replace a value and return the previous one
	MsgTKVDelete     // Delete a key-value pair

	// Custom operations

	MsgTCustom // Custom operation type
)
