// Package wire defines the vocabulary shared with the capture device layer.
//
// The device layer reports everything through asynchronous messages: scanner
// arrival and removal, property get/set completions, scanner events and
// session termination. Outbound requests carry a property and a correlation
// token that the completion message echoes back.
//
// # Results
//
// Result codes are opaque integers passed through from the device layer.
// Non-negative codes are successes. Two negative codes are reserved for retry
// suppression: ResultNotSupported and ResultInvalidHandle.
//
// # Encoding
//
// Types that travel over the network use CBOR (RFC 8949) with integer map
// keys. Encoding is deterministic so identical values produce identical bytes.
package wire
