// Package queue serializes outbound property requests to the device layer.
//
// A Queue holds Commands in order and keeps at most one of them Pending at a
// time. The head is handed to a Sender when it is Ready; its completion is
// routed back by correlation token. Failed completions are retried silently
// until MaxRetries dispatch attempts have been made.
//
// Ordering is FIFO with two overrides:
//
//   - Enqueueing an abort Command clears the queue first, so the abort is the
//     only Command left.
//   - EnqueueConfirmation places a data confirmation directly behind the head
//     (after any confirmations already waiting there), so a scanner receives
//     its acknowledgment as soon as the in-flight request completes.
//
// No lock is held while calling the Sender.
package queue
