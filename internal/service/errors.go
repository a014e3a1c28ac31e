// Package service implements the reservation engine: the transactional
// allocator, the check-in reconciler and the slot lifecycle operations.
// This file defines the error taxonomy.  Business outcomes are expected
// results returned to the caller for user-facing messaging and are
// never retried; transient storage conflicts are retried internally up
// to a fixed bound; anything else is fatal and propagates immediately.
package service

import "errors"

// Business outcomes.

// ErrInvalidPartySize is returned when a booking requests fewer than
// one seat or more than the configured per-booking maximum.
var ErrInvalidPartySize = errors.New("invalid party size")

// ErrInvalidSlotInput is returned when the parameters for a new slot
// fail validation (bad date or time format, end not after start,
// capacity below one, or a malformed auto-publish descriptor).
var ErrInvalidSlotInput = errors.New("invalid slot parameters")

// ErrSlotFull is returned when the slot has fewer seats remaining than
// the booking requests.  This is a normal outcome, not a failure.
var ErrSlotFull = errors.New("slot is fully booked")

// ErrSlotNotBookable is returned when the target slot is unpublished or
// archived, including the case where it was archived between the
// client's read and the booking attempt.
var ErrSlotNotBookable = errors.New("slot is not open for booking")

// ErrMaxRetriesExceeded is returned when persistent storage contention
// exhausts the retry budget.  No registration exists in that case.
var ErrMaxRetriesExceeded = errors.New("reservation retries exhausted")

// ErrInvalidCheckInCount is returned when the check-in count is below
// one or above the registration's party size.
var ErrInvalidCheckInCount = errors.New("invalid check-in count")

// ErrCheckInFinal is returned when a differing re-check-in arrives
// while corrections are disabled by configuration.
var ErrCheckInFinal = errors.New("registration check-in is final")

// ErrCapacityConflict is returned when a check-in correction would push
// the slot's remaining counter outside [0, capacity], typically due to
// concurrent corrections.  The correction is rejected, never clamped.
var ErrCapacityConflict = errors.New("correction conflicts with slot capacity")

// Storage contract.  The Store implementations produce these; the
// engine branches on them with errors.Is and never inspects driver
// error text.

// ErrSlotNotFound is returned when the requested slot does not exist.
var ErrSlotNotFound = errors.New("slot not found")

// ErrRegistrationNotFound is returned when the requested registration
// does not exist.
var ErrRegistrationNotFound = errors.New("registration not found")

// ErrSeatsUnavailable is returned by Tx.ReserveSeats when the
// conditional decrement predicate (remaining >= seats) does not hold.
var ErrSeatsUnavailable = errors.New("not enough seats remaining")

// ErrCapacityExceeded is returned by Tx.AdjustRemaining when applying
// the delta would push the remaining counter outside [0, capacity].
var ErrCapacityExceeded = errors.New("adjustment would violate capacity bounds")

// ErrSlotHasRegistrations is returned when deleting a slot that is
// still referenced by registrations; such slots must be archived.
var ErrSlotHasRegistrations = errors.New("slot has registrations")

// ErrTransientConflict marks storage-engine serialization failures
// (deadlock, lock wait timeout) that are safe to retry by re-running
// the whole transaction.  The storage adapter produces it; the engine
// retries on it.
var ErrTransientConflict = errors.New("transient storage conflict")
