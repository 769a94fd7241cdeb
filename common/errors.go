package common

import "errors"

// Sentinel errors shared by the slot, transform and batcher packages.
// Call sites wrap these with the offending values; compare with errors.Is.
var (
	// ErrCapacityExhausted is returned when every slot in a bounded pool is held.
	// Callers may recover by deferring object creation.
	ErrCapacityExhausted = errors.New("slot capacity exhausted")

	// ErrInvalidSlot is returned for ids outside the pool range, or for releasing an id that is not held.
	ErrInvalidSlot = errors.New("invalid slot")

	// ErrAlreadyAttached is returned when an object that already holds a slot is attached again.
	ErrAlreadyAttached = errors.New("object already attached")

	// ErrMalformedSubmission is returned when a draw submission's positions and slot references differ in length.
	ErrMalformedSubmission = errors.New("malformed draw submission")

	// ErrBufferOverflow is returned when batched geometry does not fit the program's GPU buffers.
	ErrBufferOverflow = errors.New("gpu buffer overflow")
)
