// Package storage persists observed price samples.
//
// Storage is optional: with no driver configured every lookup reports
// ErrDisabled and the watcher runs purely in memory. Alert state is
// deliberately never persisted; only the raw price samples are.
package storage
