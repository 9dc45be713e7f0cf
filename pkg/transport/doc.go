// Package transport carries capture service frames between a client and a
// service.
//
// Two framings are supported behind the Conn interface:
//
//	TCP        4-byte big-endian length prefix, then the CBOR payload
//	WebSocket  one binary message per payload (ws:// and wss:// addresses)
//
// Dial picks the framing from the address; Server accepts either, handing
// each connection to a Handler. Frame and connection state events are
// reported through a pkg/log Logger when one is configured.
package transport
