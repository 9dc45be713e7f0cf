// Package model holds the live state of connected scanners.
//
// A Device is created when the device layer reports an arrival and is
// destroyed on removal or session close. Every setter emits a Change to the
// observers subscribed to the device; observers do not own the device.
//
// A placeholder Device stands in for "no scanner connected" so consumers that
// render a device list always have one entry to show.
package model
