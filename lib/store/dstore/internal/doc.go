// Package internal provides the communication protocol structures and serialization
// logic for the dstore package. It defines the wire format used to transmit operations
// between the store client and the replicated state machine.
//
// This package is intended for internal use by the dstore implementation and should
// not be imported directly by external code.
//
//   - Command System: Write operations (SetIfUnset, GetSet, Delete) that modify the
//     state of the database. Commands are serialized and proposed to the RAFT cluster,
//     executed on the state machine, and their outcome travels back in the Data field of
//     the RAFT result (see EncodeResult).
//
//   - Query System: Read operations (Get). Queries are executed locally on the
//     state machine and therefore do not require serialization.
//
// Command Format:
//
//	- 1 byte: Command type
//	- 4 bytes: Key length (uint32, big endian)
//	- N bytes: Key data
//	- M bytes: Value data (absent for Delete)
//
// Result Format:
//
//	- 1 byte: status (0 = absent / not written, 1 = present / written)
//	- M bytes: previous value (GetSet only)
package internal
