package log

import (
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

var (
	// ErrInvalidEvent is returned for events that cannot be written to or
	// read from a log file.
	ErrInvalidEvent = errors.New("log: invalid event")

	// ErrTrailingData is returned by DecodeEvent when bytes follow the event.
	ErrTrailingData = errors.New("log: trailing data after event")
)

// eventCodec holds the CBOR modes used for log files. Timestamps are
// written as RFC 3339 strings with nanoseconds so a file stays readable by
// generic CBOR tools.
type eventCodec struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

var codec = mustEventCodec()

func mustEventCodec() eventCodec {
	enc, err := cbor.EncOptions{
		Sort:          cbor.SortCoreDeterministic,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("log: event encoder mode: %v", err))
	}

	// Decoding stays lenient so files from newer writers with extra keys
	// still load.
	dec, err := cbor.DecOptions{
		DupMapKey:       cbor.DupMapKeyQuiet,
		IndefLength:     cbor.IndefLengthAllowed,
		MaxNestedLevels: 16,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("log: event decoder mode: %v", err))
	}
	return eventCodec{enc: enc, dec: dec}
}

// Validate reports whether e is well formed: it has a timestamp, its
// direction, layer and category are known, and at most one payload is set.
func (e Event) Validate() error {
	switch {
	case e.Timestamp.IsZero():
		return fmt.Errorf("%w: missing timestamp", ErrInvalidEvent)
	case e.Direction > DirectionOut:
		return fmt.Errorf("%w: direction %d", ErrInvalidEvent, e.Direction)
	case e.Layer > LayerSession:
		return fmt.Errorf("%w: layer %d", ErrInvalidEvent, e.Layer)
	case e.Category > CategoryError:
		return fmt.Errorf("%w: category %d", ErrInvalidEvent, e.Category)
	}

	payloads := 0
	for _, set := range []bool{e.Frame != nil, e.Message != nil, e.StateChange != nil, e.Error != nil} {
		if set {
			payloads++
		}
	}
	if payloads > 1 {
		return fmt.Errorf("%w: %d payloads", ErrInvalidEvent, payloads)
	}
	return nil
}

// EncodeEvent validates event and encodes it as one CBOR item.
func EncodeEvent(event Event) ([]byte, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}
	return codec.enc.Marshal(event)
}

// DecodeEvent decodes exactly one event from data.
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	rest, err := codec.dec.UnmarshalFirst(data, &event)
	if err != nil {
		return Event{}, err
	}
	if len(rest) > 0 {
		return Event{}, fmt.Errorf("%w: %d bytes", ErrTrailingData, len(rest))
	}
	if err := event.Validate(); err != nil {
		return Event{}, err
	}
	return event, nil
}

// NewEncoder returns a CBOR stream encoder for events written to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return codec.enc.NewEncoder(w)
}

// NewDecoder returns a CBOR stream decoder for events read from r.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return codec.dec.NewDecoder(r)
}
