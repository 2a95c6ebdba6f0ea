package output

import "context"

// ChatPort turns a prompt into the backend's answer.
type ChatPort interface {
	Query(ctx context.Context, prompt string) (string, error)
}
