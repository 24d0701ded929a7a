// Package backoff implements exponential backoff with jitter, used to
// space the Fona carrier-search retry loop (AT+CPSI=5 repeated until
// online) and similar bring-up polling so the core doesn't hammer the
// modem on every event-loop tick while waiting on carrier registration.
package backoff
