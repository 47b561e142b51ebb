// Package resolve turns a scanned disc into a library title. It runs
// the local naming pipeline over the drive label and raw scan output,
// probes the external metadata lookup with the raw label before the
// extracted candidate, and falls back to the best local candidate when
// the lookup is unavailable or unconvincing.
package resolve
