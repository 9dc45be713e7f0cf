package log

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/capture-protocol/capture-go/pkg/wire"
)

// Filter selects events. Zero fields match everything.
type Filter struct {
	// SessionID is the capture session or network connection ID.
	SessionID string

	Direction *Direction
	Layer     *Layer
	Category  *Category

	// TimeStart and TimeEnd bound the timestamp as [TimeStart, TimeEnd).
	TimeStart *time.Time
	TimeEnd   *time.Time

	// Handle is the scanner the event concerns.
	Handle wire.Handle

	// Property and Token select message events for one property or one
	// request.
	Property wire.PropertyID
	Token    wire.Token
}

// Match reports whether e satisfies every criterion set in f.
func (f Filter) Match(e Event) bool {
	return f.predicate()(e)
}

// predicate compiles f into a check over only the criteria that are set.
func (f Filter) predicate() func(Event) bool {
	var checks []func(Event) bool
	add := func(c func(Event) bool) { checks = append(checks, c) }

	if id := f.SessionID; id != "" {
		add(func(e Event) bool { return e.SessionID == id })
	}
	if f.Direction != nil {
		d := *f.Direction
		add(func(e Event) bool { return e.Direction == d })
	}
	if f.Layer != nil {
		l := *f.Layer
		add(func(e Event) bool { return e.Layer == l })
	}
	if f.Category != nil {
		c := *f.Category
		add(func(e Event) bool { return e.Category == c })
	}
	if f.TimeStart != nil {
		start := *f.TimeStart
		add(func(e Event) bool { return !e.Timestamp.Before(start) })
	}
	if f.TimeEnd != nil {
		end := *f.TimeEnd
		add(func(e Event) bool { return e.Timestamp.Before(end) })
	}
	if h := f.Handle; h != wire.HandleNone {
		add(func(e Event) bool { return e.Handle == h })
	}
	if p := f.Property; p != 0 {
		add(func(e Event) bool { return e.Message != nil && e.Message.Property == p })
	}
	if tok := f.Token; tok != wire.TokenNone {
		add(func(e Event) bool { return e.Message != nil && e.Message.Token == tok })
	}

	return func(e Event) bool {
		for _, check := range checks {
			if !check(e) {
				return false
			}
		}
		return true
	}
}

// Reader streams events back from a file written by FileLogger.
type Reader struct {
	file    *os.File
	decoder *cbor.Decoder
	keep    func(Event) bool
	skipped int
}

// NewReader opens path and reads every event.
func NewReader(path string) (*Reader, error) {
	return NewFilteredReader(path, Filter{})
}

// NewFilteredReader opens path and reads the events matching filter.
func NewFilteredReader(path string, filter Filter) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Reader{
		file:    f,
		decoder: NewDecoder(f),
		keep:    filter.predicate(),
	}, nil
}

// Next returns the next matching event, or io.EOF at the end of the file.
// Events that decode but fail Validate are passed over and counted by
// Skipped. A file cut off mid-event yields io.ErrUnexpectedEOF.
func (r *Reader) Next() (Event, error) {
	for {
		var event Event
		if err := r.decoder.Decode(&event); err != nil {
			if errors.Is(err, io.EOF) {
				return Event{}, io.EOF
			}
			return Event{}, fmt.Errorf("log: event at byte %d: %w", r.decoder.NumBytesRead(), err)
		}
		if event.Validate() != nil {
			r.skipped++
			continue
		}
		if r.keep(event) {
			return event, nil
		}
	}
}

// Skipped returns the number of invalid events Next has passed over.
func (r *Reader) Skipped() int {
	return r.skipped
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}
