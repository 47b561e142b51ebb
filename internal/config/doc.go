// Package config loads, defaults, and validates the librarian
// configuration file. Secrets may also arrive through the environment
// (optionally via a .env file) so keys stay out of committed config.
package config
