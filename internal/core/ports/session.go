package ports

import (
	"context"
	"io"

	"github.com/netfleet/backend/internal/domain"
)

// Session is an open connection to one device, owned exclusively by the task
// execution that opened it. Implementations must be safe to Close more than
// once.
type Session interface {
	Target() string
	Run(ctx context.Context, cmd string) (string, error)
	Upload(ctx context.Context, src io.Reader, remotePath string) error
	Close() error
}

// SessionProvider yields connected sessions. A single Open attempt is expected
// to be bounded by the context deadline; retry policy lives with the caller.
type SessionProvider interface {
	Open(ctx context.Context, endpoint domain.Endpoint) (Session, error)
}

// EndpointResolver maps a target identity to connection material. The
// inventory service is the production implementation.
type EndpointResolver interface {
	ResolveEndpoint(ctx context.Context, target string) (domain.Endpoint, error)
}
