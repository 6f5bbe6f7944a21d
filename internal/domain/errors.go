package domain

import "errors"

var (
	// ErrValidation marks input rejected before any write.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned when an entity does not exist or is soft-deleted.
	ErrNotFound = errors.New("not found")
	// ErrMissingSummary is returned when speech synthesis is requested for an article without summary text.
	ErrMissingSummary = errors.New("article has no summary")
	// ErrSpeechFailed is returned when either voice rendition could not be produced.
	ErrSpeechFailed = errors.New("speech synthesis failed")
	// ErrNoResults is returned by read paths that produced nothing to show.
	ErrNoResults = errors.New("no results")
	// ErrUnknownPublisher is returned when no source adapter is registered for a publisher.
	ErrUnknownPublisher = errors.New("unknown publisher")
)
