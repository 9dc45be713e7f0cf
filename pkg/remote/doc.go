// Package remote carries the device layer over a transport connection.
//
// Layer is the client side: it implements session.DeviceLayer by sending
// request envelopes and waiting for the reply with the same sequence number.
// Asynchronous device-layer messages arrive as OpMessage envelopes and are
// buffered until the session polls for them.
//
// Serve is the service side: it runs requests against any
// session.DeviceLayer, typically the simulator, and forwards its messages.
package remote
