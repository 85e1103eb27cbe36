// Package registry maps engine names to model core factories and performs
// the parity check between the loaded configuration and the cores compiled
// into the binary. Registration conflicts are programmer errors and panic;
// configuration referencing an unknown engine is a user error and is
// reported through Validate.
package registry
