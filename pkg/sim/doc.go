// Package sim is an in-process capture service. It implements
// session.DeviceLayer with scriptable scanners so sessions can be driven
// without hardware, and it backs the capture-sim binary.
//
// Property requests complete asynchronously: each accepted request queues a
// completion message that WaitForMessage returns later. Failures can be
// injected per property, either at dispatch (FailDispatch) or in the
// completion (FailNext).
package sim
