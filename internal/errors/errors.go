// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

// Package errors defines the crawl-and-index error taxonomy and a small
// set of wrap helpers used throughout the core.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Sentinel errors for the crawl-and-index core, per the recovery table.
var (
	// ErrSourceUnavailable covers VCS clone/fetch failures and provider 5xx
	// responses. Callers retry up to 3x with backoff before giving up.
	ErrSourceUnavailable = stderrors.New("source unavailable")

	// ErrSourceAuthFailed covers 401/403 responses from a provider. Never
	// retried; fails the crawl outright.
	ErrSourceAuthFailed = stderrors.New("source authentication failed")

	// ErrBranchNotFound means neither refs/remotes/origin/<branch> nor
	// refs/heads/<branch> resolved. Skips the branch, not the whole crawl.
	ErrBranchNotFound = stderrors.New("branch not found")

	// ErrBlobReadFailed is a per-file object-store failure. Non-fatal.
	ErrBlobReadFailed = stderrors.New("blob read failed")

	// ErrIndexWriteFailed is a writer I/O error. Fatal to the crawl.
	ErrIndexWriteFailed = stderrors.New("index write failed")

	// ErrCancelledByUser marks a normal cooperative-cancellation exit.
	ErrCancelledByUser = stderrors.New("cancelled by user")

	// ErrExceededMaxDuration is raised by the scheduler's own timer.
	ErrExceededMaxDuration = stderrors.New("exceeded max crawl duration")

	// ErrQueryParseFailed surfaces a malformed user query.
	ErrQueryParseFailed = stderrors.New("query parse failed")

	// ErrNotFound is returned by the metadata-store contract and by
	// single-document lookups (get_by_id, get_by_doc_address).
	ErrNotFound = stderrors.New("not found")

	// ErrDuplicate is returned when a create would violate a uniqueness
	// constraint in the metadata store contract.
	ErrDuplicate = stderrors.New("duplicate")
)

// Wrap attaches target to err using %w so that Is(result, target) succeeds,
// while preserving err's own message. If err is nil, target is returned
// unwrapped. If target is nil, err is returned unwrapped.
func Wrap(err, target error) error {
	if err == nil {
		return target
	}
	if target == nil {
		return err
	}
	return fmt.Errorf("%w: %w", target, err)
}

// WrapWithMessage attaches a human-readable message to err while keeping it
// unwrappable via errors.Is/errors.As. Returns nil if err is nil.
func WrapWithMessage(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is is a re-export of the standard library's errors.Is, kept here so
// callers depend on this package alone for taxonomy checks.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As is a re-export of the standard library's errors.As.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}
