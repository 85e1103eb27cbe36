// Package config defines the format-agnostic configuration model for the
// composite model run, along with the Loader interface for reading it from
// a concrete file format.
//
// The `config.Model` is the single source of truth for the registry and
// the coupling engine. The JSON implementation of the Loader lives in the
// jsonconfig package.
package config
