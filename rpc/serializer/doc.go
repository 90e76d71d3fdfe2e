// Package serializer turns common.Message values into bytes and back.
// Client and server must use the same implementation, there is no format negotiation.
//
// Implementations:
//
//   - NewBinarySerializer: flag byte plus length prefixed fields, only present fields
//     are written. The smallest and fastest format, and the only one that keeps an
//     empty value apart from an absent one.
//
//   - NewJSONSerializer: readable on the wire (message types as names), handy with
//     the http transport and curl.
//
//   - NewGOBSerializer: encoding/gob. Works, but is the slowest and largest of the three.
//
// ByName maps the names used on the command line (json, gob, binary) to an implementation.
//
// Every implementation is stateless and safe for concurrent use. Deserialize resets
// the target message before decoding, so a message can be reused:
//
//	s := serializer.NewBinarySerializer()
//	data, err := s.Serialize(*common.NewGetRequest("orders:42:_lock"))
//	...
//	var resp common.Message
//	err = s.Deserialize(respData, &resp)
package serializer
