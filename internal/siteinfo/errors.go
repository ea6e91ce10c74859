// internal/siteinfo/errors.go
//
// Error taxonomy for one gather run.
//
//   • ErrConnection     – a remote source is unreachable.  Fatal.
//   • ErrPersistence    – a write to the central store failed.  Fatal.
//   • ErrMalformedField – an optional column was missing or unusable.
//                         Never returned; carried in a Degradation.
//   • ErrRunInProgress  – another run holds the run-level lock.

package siteinfo

import (
	"errors"
	"fmt"
)

var (
	ErrConnection     = errors.New("siteinfo: connection failure")
	ErrPersistence    = errors.New("siteinfo: persistence failure")
	ErrMalformedField = errors.New("siteinfo: malformed optional field")
	ErrRunInProgress  = errors.New("siteinfo: gather run already in progress")
)

// SourceError ties a connection failure to the schema it happened on.
// Schema is empty for the host-level catalog scan.
type SourceError struct {
	Host   string
	Schema string
	Err    error
}

func (e *SourceError) Error() string {
	if e.Schema == "" {
		return fmt.Sprintf("siteinfo source %s: %v", e.Host, e.Err)
	}
	return fmt.Sprintf("siteinfo source %s/%s: %v", e.Host, e.Schema, e.Err)
}

func (e *SourceError) Unwrap() []error { return []error{ErrConnection, e.Err} }

// Degradation records one optional field that fell back to a default.
type Degradation struct {
	Field  string
	Reason string
}

func (d Degradation) Error() string {
	return fmt.Sprintf("%v: %s: %s", ErrMalformedField, d.Field, d.Reason)
}

func (d Degradation) Unwrap() error { return ErrMalformedField }
