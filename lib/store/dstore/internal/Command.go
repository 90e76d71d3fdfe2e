package internal

import (
	"encoding/binary"
	"fmt"

	"github.com/ValentinKolb/dLock/lib/db"
)

// CommandType defines the possible operations for the state machine.
type CommandType uint8

const (
	CommandTSetIfUnset CommandType = iota // Insert an entry if it does not exist.
	CommandTGetSet                        // Replace an entry and return the previous value.
	CommandTDelete                        // Delete an entry.
)

func (ct CommandType) String() string {
	switch ct {
	case CommandTSetIfUnset:
		return "SetIfUnset"
	case CommandTGetSet:
		return "GetSet"
	case CommandTDelete:
		return "Delete"
	default:
		return fmt.Sprintf("Unknown(%d)", ct)
	}
}

// ToDBFeature converts a CommandType to the corresponding db.Feature.
// This can be used for checking if the database supports a certain operation.
func (ct CommandType) ToDBFeature() (db.Feature, error) {
	switch ct {
	case CommandTSetIfUnset:
		return db.FeatureSetIfUnset, nil
	case CommandTGetSet:
		return db.FeatureGetSet, nil
	case CommandTDelete:
		return db.FeatureDelete, nil
	default:
		return 0, fmt.Errorf("unknown command type %d", ct)
	}
}

// headerSize is Type (1 byte) + KeyLen (4 bytes)
const headerSize = 1 + 4

// Command represents a command to be executed by the state machine (a single entry in the raft log)
type Command struct {
	Type  CommandType
	Key   string
	Value []byte
}

// SizeBytes returns the exact number of bytes needed to serialize this command
func (command *Command) SizeBytes() int {
	return headerSize + len(command.Key) + len(command.Value)
}

// Serialize serializes a command into a byte array with the format:
// 1 byte for operation type,
// 4 bytes for key length (big endian),
// N bytes for key data,
// N bytes for value data (optional)
func (command *Command) Serialize() []byte {
	result := make([]byte, command.SizeBytes())

	result[0] = byte(command.Type)
	binary.BigEndian.PutUint32(result[1:headerSize], uint32(len(command.Key)))
	n := copy(result[headerSize:], command.Key)
	copy(result[headerSize+n:], command.Value)

	return result
}

// Deserialize extracts all Command fields from a byte array.
func (command *Command) Deserialize(data []byte) error {
	if len(data) < headerSize {
		return fmt.Errorf("data too short for command")
	}

	command.Type = CommandType(data[0])
	keyLen := int(binary.BigEndian.Uint32(data[1:headerSize]))

	if len(data) < headerSize+keyLen {
		return fmt.Errorf("data too short for key of length %d", keyLen)
	}
	command.Key = string(data[headerSize : headerSize+keyLen])

	// Extract value if present
	if rest := data[headerSize+keyLen:]; len(rest) > 0 {
		// Reuse existing buffer if possible to reduce allocations
		if cap(command.Value) < len(rest) {
			command.Value = make([]byte, len(rest))
		} else {
			command.Value = command.Value[:len(rest)]
		}
		copy(command.Value, rest)
	} else {
		command.Value = nil
	}

	return nil
}

// --------------------------------------------------------------------------
// Command results
// --------------------------------------------------------------------------

// Status bytes prepended to the Data field of a command result
const (
	ResultAbsent  byte = 0 // the key did not exist / the value was not written
	ResultPresent byte = 1 // the key existed / the value was written
)

// EncodeResult builds the Data payload of a successful command result:
// one status byte followed by an optional value (the previous value for GetSet).
func EncodeResult(ok bool, value []byte) []byte {
	result := make([]byte, 1+len(value))
	if ok {
		result[0] = ResultPresent
	}
	copy(result[1:], value)
	return result
}

// DecodeResult is the inverse of EncodeResult.
func DecodeResult(data []byte) (ok bool, value []byte, err error) {
	if len(data) < 1 {
		return false, nil, fmt.Errorf("empty command result")
	}
	switch data[0] {
	case ResultAbsent:
	case ResultPresent:
		ok = true
	default:
		return false, nil, fmt.Errorf("invalid result status %d", data[0])
	}
	if len(data) > 1 {
		value = make([]byte, len(data)-1)
		copy(value, data[1:])
	}
	return ok, value, nil
}
