// Package naming resolves a human-readable disc title from noisy MakeMKV
// metadata: disc-level CINFO fields, per-title TINFO fields, and drive
// volume labels.
//
// The pipeline is built from pure rule chains:
//   - Clean normalizes a raw string (markup, separators, extensions, markers)
//   - IsNoisy and IsHardwareLabel classify strings that cannot be titles
//   - GatherCandidates and ScoreCandidates build a ranked candidate pool
//   - ChooseTitle applies the disambiguation policy, optionally prompting
//     when candidates score too close together
//
// Every function degrades to the empty string rather than returning an
// error; an empty result means no usable title was found.
package naming
