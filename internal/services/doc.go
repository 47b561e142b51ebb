// Package services defines shared helpers for the resolution pipeline.
//
// Key responsibilities:
//   - Structured error markers plus the Wrap helper so failures from
//     external tools, configuration, and lookups classify consistently.
//   - Context helpers that stamp a resolution id for logging.
//
// Use these helpers when wiring new pipeline logic so error handling and
// observability stay uniform across components.
package services
