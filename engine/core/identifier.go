package core

import "github.com/google/uuid"

// ShortIdentifier is the first block of a new identifier, enough to tell
// swapchain generations apart in a log stream.
func ShortIdentifier() string {
	id := uuid.New()
	return id.String()[:8]
}
