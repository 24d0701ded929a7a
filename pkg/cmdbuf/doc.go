// Package cmdbuf implements the line-oriented receive accumulator shared by
// every byte-stream device in the supervisor: the cellular modem, the LoRa
// modem, and any other AT-style or NMEA-style transport. It handles framing
// (printable ASCII up to a bounded line length, terminated by '\n'), overflow
// parking into a circular "busy" buffer while a completed line awaits
// consumption, case-insensitive keyword matching with wildcard and token
// extraction, and a per-buffer "recognized" bitmap that callers use to track
// which fragments of a multi-line reply have been observed.
package cmdbuf
