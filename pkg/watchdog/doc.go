// Package watchdog implements the forward-progress timer shared by every
// transport state machine (spec §4.2). Each transport remembers the last
// time its cmdbuf observed a state transition; if too long elapses while
// the transport is not Idle, the watchdog fires and the transport should
// perform a full reset. A long-running operation (firmware download) can
// temporarily raise the threshold via Extend.
package watchdog
