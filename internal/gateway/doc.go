// Package gateway implements the polling session against the cloud
// control gateway.
//
// The gateway speaks JSON over HTTPS. Every request carries the
// long-lived password and a millisecond timestamp; responses are only
// trusted on HTTP 200. One Session runs one poll loop:
//
//  1. Announce online, create a session (POST /newsession), store the
//     issued session credential.
//  2. Fetch remote tasks (POST /fetch), apply each to the device
//     Controller, report the state snapshot back (POST /setstate).
//  3. Sleep the configured update rate, repeat.
//  4. Announce offline on shutdown.
//
// Failures follow the skip-and-continue policy: a failed fetch or report
// is logged and the loop moves on at the fixed interval. The one
// exception is a streak of authentication failures, which triggers a
// session reset instead of looping forever on a dead credential.
//
// The session credential lives behind a reader/writer lock; readers see
// either the empty string or a valid credential, never a stale one after
// ResetSession.
package gateway
