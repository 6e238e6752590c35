package flowrelay

import "errors"

var (
	// Store errors.
	ErrNoStore = errors.New("flowrelay: no store configured")

	// Not found errors.
	ErrStatusNotFound  = errors.New("flowrelay: run status not found")
	ErrMessageNotFound = errors.New("flowrelay: chat message not found")
	ErrSessionNotFound = errors.New("flowrelay: chat session not found")

	// State errors.
	ErrRunTerminal = errors.New("flowrelay: run already reached a terminal status")
)
