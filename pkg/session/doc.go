// Package session is the application-facing side of a capture service
// connection.
//
// A Session owns a command queue (see package queue), a registry of the
// scanners the device layer reported, and the dispatch loop that routes one
// device-layer message per ReceiveOnce call. Applications receive results
// through a Notifier and post property requests with the Get*/Set* methods.
//
// Lifecycle:
//
//	Closed -> Opening -> Open -> Closing -> Closed
//
// Open starts the handshake in the background and returns immediately. The
// first ReceiveOnce after a successful handshake moves the session to Open.
// Close enqueues the abort request; the session reaches Closed when the
// device layer answers with a Terminate message.
//
// The loop never sleeps. Callers either invoke ReceiveOnce on their own
// cadence or use Run, which ticks at Config.ReceiveInterval.
package session
