// Package omdb resolves noisy disc-derived title strings against the
// OMDb HTTP API. The client covers the three OMDb lookup modes (search,
// exact title, fetch by IMDb id); the resolver layers exact-lookup
// shortcuts, broadened searches, and fuzzy scoring on top of it.
package omdb
