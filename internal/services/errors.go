// Package services defines the business logic for snapshot ingestion,
// diffing, and gap reporting. This file centralizes common service-level
// error values so that they can be consistently returned by service methods
// and checked by callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer.
package services

import "errors"

var (
	// ErrUnknownSource is returned when a request names a retailer source
	// outside the closed enum.
	ErrUnknownSource = errors.New("unknown source")

	// ErrSnapshotNotFound indicates that the requested snapshot does not
	// exist for the given source.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrEmptySnapshot is returned when an ingest request carries no
	// discount records.
	ErrEmptySnapshot = errors.New("snapshot is empty")

	// ErrTooManyRecords is returned when an ingest request exceeds the
	// configured per-snapshot record cap.
	ErrTooManyRecords = errors.New("too many records in snapshot")
)
