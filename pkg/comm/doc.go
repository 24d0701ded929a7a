// Package comm implements the Comm Supervisor: WAN-mode transport
// selection, GPS fan-in across sources, the oneshot power cycle for
// battery-backed uploads, and the service-update priority ladder. It
// owns no transport itself; it drives whichever transport.Transport
// the selection policy currently names.
package comm
