// Package storage implements the single versioned, signature-guarded
// persistent Configuration page (spec §3/§6): WAN mode, product id,
// feature flags, oneshot intervals, restart interval, sensor bitmap,
// device id, LPWAN region, APN, GPS overrides, sensor parameter string,
// and DFU state. The page is read/written as a whole; mismatched
// signatures or an out-of-range version trigger defaults and a rewrite.
package storage
