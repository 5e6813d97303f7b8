package msgx

import (
	"context"
)

// Response is a successful gateway reply with its decoded JSON body
type Response struct {
	Status int
	Body   any
}

// Gateway executes panel commands against a WhatsApp gateway.
// Non-2xx replies come back as errors from Registry: ErrInstanceNotFound,
// ErrInstanceExists or ErrGatewayAPI with "status", "message" and "data" details.
type Gateway interface {
	Execute(ctx context.Context, cmd Command) (*Response, error)
}

// GatewayFunc adapts a function to Gateway
type GatewayFunc func(ctx context.Context, cmd Command) (*Response, error)

func (f GatewayFunc) Execute(ctx context.Context, cmd Command) (*Response, error) {
	return f(ctx, cmd)
}
