package wire

import (
	"errors"
	"fmt"
)

// Result is an opaque device-layer result code.
type Result int32

const (
	// ResultSuccess indicates the operation completed successfully.
	ResultSuccess Result = 0

	// ResultWaitTimeout indicates no message arrived within the wait period.
	// It is a success code.
	ResultWaitTimeout Result = 1

	// ResultAlreadyDone indicates the request had no effect because the
	// target was already in the requested state. It is a success code.
	ResultAlreadyDone Result = 2

	// ResultFailure is the generic failure code.
	ResultFailure Result = -1

	// ResultNotReady indicates the device layer is not ready for the request.
	ResultNotReady Result = -2

	// ResultDeviceBusy indicates the scanner could not service the request now.
	ResultDeviceBusy Result = -3

	// ResultTimeout indicates the scanner did not answer in time.
	ResultTimeout Result = -4

	// ResultNotOpen indicates the device layer or scanner session is not open.
	ResultNotOpen Result = -6

	// ResultAlreadyOpen indicates the device layer is already open.
	ResultAlreadyOpen Result = -7

	// ResultInvalidParameter indicates a malformed property value.
	ResultInvalidParameter Result = -11

	// ResultNotSupported indicates the scanner does not support the operation.
	ResultNotSupported Result = -15

	// ResultInvalidHandle indicates the handle is unknown or stale.
	ResultInvalidHandle Result = -18

	// ResultTransport indicates the link to the device layer failed.
	ResultTransport Result = -47
)

// IsSuccess returns true for non-negative result codes.
func (r Result) IsSuccess() bool {
	return r >= 0
}

// IsRetrySuppressed returns true for the codes that must never be retried.
func (r Result) IsRetrySuppressed() bool {
	return r == ResultNotSupported || r == ResultInvalidHandle
}

// String returns the result name.
func (r Result) String() string {
	switch r {
	case ResultSuccess:
		return "SUCCESS"
	case ResultWaitTimeout:
		return "WAIT_TIMEOUT"
	case ResultAlreadyDone:
		return "ALREADY_DONE"
	case ResultFailure:
		return "FAILURE"
	case ResultNotReady:
		return "NOT_READY"
	case ResultDeviceBusy:
		return "DEVICE_BUSY"
	case ResultTimeout:
		return "TIMEOUT"
	case ResultNotOpen:
		return "NOT_OPEN"
	case ResultAlreadyOpen:
		return "ALREADY_OPEN"
	case ResultInvalidParameter:
		return "INVALID_PARAMETER"
	case ResultNotSupported:
		return "NOT_SUPPORTED"
	case ResultInvalidHandle:
		return "INVALID_HANDLE"
	case ResultTransport:
		return "TRANSPORT"
	default:
		return fmt.Sprintf("RESULT(%d)", int32(r))
	}
}

// ResultError carries a failing device-layer result code as an error.
type ResultError struct {
	Result  Result
	Message string
}

func (e *ResultError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Result, e.Message)
	}
	return e.Result.String()
}

// Err returns nil for success codes and a *ResultError otherwise.
func (r Result) Err() error {
	if r.IsSuccess() {
		return nil
	}
	return &ResultError{Result: r}
}

// Errorf builds a *ResultError with a formatted message.
func Errorf(r Result, format string, args ...any) error {
	return &ResultError{Result: r, Message: fmt.Sprintf(format, args...)}
}

// ResultOf maps an error back to a result code.
// nil maps to ResultSuccess; errors that carry no code map to ResultFailure.
func ResultOf(err error) Result {
	if err == nil {
		return ResultSuccess
	}
	var re *ResultError
	if errors.As(err, &re) {
		return re.Result
	}
	return ResultFailure
}

// IsRetrySuppressed reports whether err carries a code that must not be retried.
func IsRetrySuppressed(err error) bool {
	return err != nil && ResultOf(err).IsRetrySuppressed()
}
