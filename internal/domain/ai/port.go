package ai

import "context"

// Client sends one file's source code to a completion model and returns the
// raw response text, which may contain prose around the JSON payload.
type Client interface {
	Review(ctx context.Context, filename, code string) (string, error)
}
