package core

import "fmt"

// StoreError wraps a transport or constraint violation from the persistent
// store gateway.
type StoreError struct {
	Kind  string // e.g. "connect", "query", "constraint"
	Table string
	Cause error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error (%s) on %s: %v", e.Kind, e.Table, e.Cause)
}

func (e *StoreError) Unwrap() error { return e.Cause }

// ProviderBuildError means a single provider's homepage crawl failed; it is
// dropped and counted, never fatal to the collector run.
type ProviderBuildError struct {
	Provider string
	Cause    error
}

func (e *ProviderBuildError) Error() string {
	return fmt.Sprintf("provider %s build failed: %v", e.Provider, e.Cause)
}

func (e *ProviderBuildError) Unwrap() error { return e.Cause }

// ArticleRejected means a candidate article failed validation; logged at
// debug level and skipped, never fatal.
type ArticleRejected struct {
	URL    string
	Reason string
}

func (e *ArticleRejected) Error() string {
	return fmt.Sprintf("article %s rejected: %s", e.URL, e.Reason)
}

// SummariserError is fatal for the calling stage: the retry budget for a
// schema-constrained LLM call has been exhausted.
type SummariserError struct {
	Shape   string // "story", "rundowns", "timeline"
	Retries int
	Cause   error
}

func (e *SummariserError) Error() string {
	return fmt.Sprintf("summariser %s exhausted %d retries: %v", e.Shape, e.Retries, e.Cause)
}

func (e *SummariserError) Unwrap() error { return e.Cause }

// WrongState is raised by the digest controller when a stage's expected
// state does not match the active digest's actual state. Fatal; the row is
// left unchanged.
type WrongState struct {
	DigestID int
	Actual   DigestState
	Expected DigestState
}

func (e *WrongState) Error() string {
	return fmt.Sprintf("digest %d in state %s, expected %s", e.DigestID, e.Actual, e.Expected)
}

// ClusterEmpty means a clustering pass produced no clusters meeting the
// admission criterion; skipped silently, not fatal.
type ClusterEmpty struct {
	Stage string // "stories" or "timelines"
}

func (e *ClusterEmpty) Error() string {
	return fmt.Sprintf("%s clustering produced no admitted clusters", e.Stage)
}

// ParseError is internal to the summariser/timeline validator: the model's
// JSON response failed schema or grammar validation and should be retried.
type ParseError struct {
	Field string
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error on field %s: %v", e.Field, e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// Cancelled surfaces a caller-cancelled stage to the controller without
// advancing the digest state.
type Cancelled struct {
	Stage string
}

func (e *Cancelled) Error() string {
	return fmt.Sprintf("stage %s cancelled", e.Stage)
}
