// Package watcher polls the optical drives for newly inserted discs and
// runs each one through scan, title resolution, history, and manifest
// persistence. A file lock keeps the watcher single-instance and a
// free-space floor pauses detection when the library volume runs low.
package watcher
