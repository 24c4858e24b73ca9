package apperr

import "errors"

// ErrValidation is returned when the input fails domain validation.
var ErrValidation = errors.New("validation failed")

// ErrInvalidTransition is returned when a requested order status transition
// is not present in the transition table.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrStaleTransition is returned when the order has already moved past the
// requested status. The caller should refresh its view instead of retrying.
var ErrStaleTransition = errors.New("stale status transition")

// ErrAlreadyAssigned is returned to every loser of an assignment race (HTTP 409).
var ErrAlreadyAssigned = errors.New("order already assigned")

// ErrPartnerNotAvailable is returned when the target partner is busy or offline.
var ErrPartnerNotAvailable = errors.New("partner not available")

// ErrUnauthorized is returned when the identity service rejects a token or
// the token resolves to no known identity.
var ErrUnauthorized = errors.New("unauthorized")

// ErrNotFound indicates that the referenced order or partner does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a uniqueness conflict on roster data (HTTP 409).
var ErrConflict = errors.New("conflict")

// ErrNotAssignedPartner is returned when the caller is not the partner bound
// to the order it is trying to move.
var ErrNotAssignedPartner = errors.New("caller is not the assigned partner")

// ErrStorageConflict is returned by a conditional write whose status guard no
// longer matches the stored record. The coordinator retries these internally
// a bounded number of times before surfacing the failure.
var ErrStorageConflict = errors.New("storage conflict")
