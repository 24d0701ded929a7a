// Package transport defines the shared contract the Comm Supervisor
// drives every transport (LoRa, Fona) through, plus the state shared by
// every implementation: the GPS cache, the deferred-I/O descriptor used
// by send/receive pipelines that wait on a modem prompt, and the
// sentinel states common to every transport's state machine.
package transport
