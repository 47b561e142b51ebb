// Package history keeps a SQLite record of every disc resolution so
// past outcomes can be inspected and repeated discs short-circuited.
package history
