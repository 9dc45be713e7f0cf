// Package connection provides the retry policy used when a client connects
// to a remote capture service.
//
// Delays grow exponentially from Initial to Max with a random jitter of up
// to Jitter times the base delay:
//
//	delay = base + random(0, base * jitter)
//
// Retry drives a connect function with that policy until it succeeds, the
// context ends, or the attempt budget is spent.
package connection
