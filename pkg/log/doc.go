// Package log captures protocol events for capture sessions.
//
// It is separate from operational logging (slog): protocol capture records a
// machine-readable trace of every request, device-layer message and session
// state change so a misbehaving session can be replayed and inspected.
//
//	// Development: events go to the console through slog.
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// Field capture: events go to a CBOR file.
//	fl, _ := log.NewFileLogger("/var/log/capture/session.cbor")
//	cfg.ProtocolLogger = log.NewMultiLogger(log.NewSlogAdapter(slog.Default()), fl)
//
// Files are a plain stream of CBOR-encoded Events; Reader iterates them with
// an optional Filter.
package log
