package bridge

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced to the session orchestrator. None of these
// are fatal to the process; the worst outcome for any of them is a
// redirect to the main menu.
var (
	ErrNotConnected      = errors.New("backend is not reachable")
	ErrSessionNotStarted = errors.New("no game session has been started")
	ErrTimeout           = errors.New("backend call timed out")
)

// Setup errors. These are recoverable: the setup screen prompts the
// player for corrective input instead of discarding app state.
var (
	ErrMissingKey       = errors.New("no OpenAI API key is configured")
	ErrBadKey           = errors.New("the OpenAI API key was rejected")
	ErrConnectionFailed = errors.New("could not reach OpenAI")
	ErrFileSystem       = errors.New("failed to access local game files")
)

// RejectedError is returned when the backend refuses a call with a
// reason the client has no specific handling for.
type RejectedError struct {
	Reason string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("backend rejected request: %s", e.Reason)
}

// GenerationError is returned when game generation fails partway.
// CheckpointID identifies the last saved generation step, so the
// player can resume instead of discarding the attempt.
type GenerationError struct {
	Message      string
	CheckpointID string
}

func (e *GenerationError) Error() string {
	if e.CheckpointID != "" {
		return fmt.Sprintf("game generation failed (resumable from %s): %s", e.CheckpointID, e.Message)
	}
	return fmt.Sprintf("game generation failed: %s", e.Message)
}
