package serializer

import (
	"encoding/binary"
	"fmt"

	"github.com/ValentinKolb/dLock/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format:
//
//	MsgType (1 byte) | flags (1 byte) | present fields in flag order
//
// Strings and byte slices are written as a 4 byte big endian length followed by the data,
// Ok as a single byte and Code as an unsigned varint.
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasKey   byte = 1 << 0
	hasValue byte = 1 << 1
	hasOk    byte = 1 << 2
	hasErr   byte = 1 << 3
	hasCode  byte = 1 << 4
	hasMeta  byte = 1 << 5
)

const headerLen = 2

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	result := make([]byte, headerLen, b.sizeBytes(msg))
	result[0] = byte(msg.MsgType)

	var flags byte
	if msg.Key != "" {
		flags |= hasKey
		result = appendBytes(result, []byte(msg.Key))
	}
	// a non nil empty value is kept, an absent value and an empty token are different things
	if msg.Value != nil {
		flags |= hasValue
		result = appendBytes(result, msg.Value)
	}
	if msg.Ok {
		flags |= hasOk
		result = append(result, 1)
	}
	if msg.Err != "" {
		flags |= hasErr
		result = appendBytes(result, []byte(msg.Err))
	}
	if msg.Code != 0 {
		flags |= hasCode
		result = binary.AppendUvarint(result, msg.Code)
	}
	if msg.Meta != nil {
		flags |= hasMeta
		result = appendBytes(result, msg.Meta)
	}

	result[1] = flags
	return result, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	if len(data) < headerLen {
		return fmt.Errorf("data too short for message header")
	}

	*msg = common.Message{MsgType: common.MessageType(data[0])}
	flags := data[1]
	r := reader{data: data, pos: headerLen}

	if flags&hasKey != 0 {
		key, err := r.readBytes("key")
		if err != nil {
			return err
		}
		msg.Key = string(key)
	}
	if flags&hasValue != 0 {
		value, err := r.readBytes("value")
		if err != nil {
			return err
		}
		msg.Value = value
	}
	if flags&hasOk != 0 {
		ok, err := r.readByte("ok flag")
		if err != nil {
			return err
		}
		msg.Ok = ok != 0
	}
	if flags&hasErr != 0 {
		errMsg, err := r.readBytes("error")
		if err != nil {
			return err
		}
		msg.Err = string(errMsg)
	}
	if flags&hasCode != 0 {
		code, err := r.readUvarint("code")
		if err != nil {
			return err
		}
		msg.Code = code
	}
	if flags&hasMeta != 0 {
		meta, err := r.readBytes("meta")
		if err != nil {
			return err
		}
		msg.Meta = meta
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// sizeBytes calculates the upper bound of the serialized size
func (b binarySerializerImpl) sizeBytes(msg common.Message) int {
	size := headerLen

	if msg.Key != "" {
		size += 4 + len(msg.Key)
	}
	if msg.Value != nil {
		size += 4 + len(msg.Value)
	}
	if msg.Ok {
		size += 1
	}
	if msg.Err != "" {
		size += 4 + len(msg.Err)
	}
	if msg.Code != 0 {
		size += binary.MaxVarintLen64
	}
	if msg.Meta != nil {
		size += 4 + len(msg.Meta)
	}

	return size
}

// appendBytes appends a length prefixed byte slice
func appendBytes(dst, data []byte) []byte {
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(data)))
	return append(dst, data...)
}

// reader walks over a serialized message, every method reports which field was truncated
type reader struct {
	data []byte
	pos  int
}

func (r *reader) readByte(field string) (byte, error) {
	if r.pos+1 > len(r.data) {
		return 0, fmt.Errorf("data too short for %s", field)
	}
	v := r.data[r.pos]
	r.pos++
	return v, nil
}

func (r *reader) readUvarint(field string) (uint64, error) {
	v, n := binary.Uvarint(r.data[r.pos:])
	if n <= 0 {
		return 0, fmt.Errorf("data too short for %s", field)
	}
	r.pos += n
	return v, nil
}

// readBytes reads a length prefixed field. The result is a copy and never nil.
func (r *reader) readBytes(field string) ([]byte, error) {
	if r.pos+4 > len(r.data) {
		return nil, fmt.Errorf("data too short for %s length", field)
	}
	n := int(binary.BigEndian.Uint32(r.data[r.pos : r.pos+4]))
	r.pos += 4

	if n < 0 || r.pos+n > len(r.data) {
		return nil, fmt.Errorf("data too short for %s data", field)
	}
	out := make([]byte, n)
	copy(out, r.data[r.pos:r.pos+n])
	r.pos += n
	return out, nil
}
