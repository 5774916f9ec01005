// Package notify implements a queue of short-lived user-facing messages.
//
// A [Center] holds notifications oldest first and dismisses each one automatically after a window
// (five seconds by default) measured from its CreatedAt. Dismissal goes through an exiting phase so a
// renderer can animate it out; the notification is removed after a short exit delay.
//
// Ownership of notifications can move between centers: [Center.Close] returns whatever was still live
// and [Center.Adopt] schedules only the time remaining, so a notification never outlives its window
// because it changed hands.
//
// Renderers either poll [Center.Snapshot] or wait on [Center.Changes].
package notify
