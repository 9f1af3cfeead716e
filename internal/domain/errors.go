package domain

import "errors"

var (
	// ErrRoomNotFound is returned for an unknown roomId, or when the caller
	// is not a participant of the room it addresses.
	ErrRoomNotFound = errors.New("room not found")

	// ErrInvalidMessage is returned when message content is empty or the
	// message type is not recognised. Rejected before persistence.
	ErrInvalidMessage = errors.New("invalid message")

	// ErrStoreUnavailable wraps persistence-layer failures. The submitting
	// client is expected to retry; no events have been emitted.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrSameParticipant is returned when a chat room is requested for a
	// single user paired with itself.
	ErrSameParticipant = errors.New("cannot create a chat room with the same user")
)
