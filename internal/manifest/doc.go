// Package manifest persists one JSON record per resolved disc so a rip
// session can be audited or resumed. Writes go through a temp file and
// rename, so readers never observe a partial manifest.
package manifest
