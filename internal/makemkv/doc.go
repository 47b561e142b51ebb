// Package makemkv wraps the MakeMKV command line tool. It enumerates
// optical drives, scans discs for titles, and fingerprints disc content
// so repeated scans of the same disc can be detected cheaply.
package makemkv
