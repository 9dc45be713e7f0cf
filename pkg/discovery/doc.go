// Package discovery advertises and finds capture services with mDNS/DNS-SD.
//
// Services register as _capture._tcp in the local domain. The instance name
// is the service's friendly name; TXT records carry:
//
//	txtvers  TXT record format version (currently 1)
//	ver      capture service version, e.g. 1.5.0.12
//	name     friendly name (may differ from a truncated instance name)
//	ws       "1" when the service speaks WebSocket framing
//
// Browse aggregates entries seen on several interfaces into one Service.
package discovery
