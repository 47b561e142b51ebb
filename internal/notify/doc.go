// Package notify sends ntfy push notifications for resolution events.
// Without a configured topic every call is a no-op.
package notify
