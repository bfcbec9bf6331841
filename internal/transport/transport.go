// Package transport defines the interface for pluggable request surfaces.
//
// Each transport (HTTP, gRPC) accepts audio uploads and hands them to the
// pipeline through the Handler contract. The pipeline doesn't care how
// requests arrive.
package transport

import (
	"context"

	"github.com/carelinehq/careline/internal/call"
)

// Handler processes one incoming request through the pipeline and returns
// the assembled result. The result always carries partial artifacts plus
// the failing stage when processing stopped early.
type Handler func(ctx context.Context, req *call.Request) *call.Result

// Transport is the interface every request surface must implement.
type Transport interface {
	// Name returns the transport identifier (e.g., "http", "grpc").
	Name() string

	// Listen starts accepting requests and dispatches them to the handler.
	// It blocks until the context is cancelled.
	Listen(ctx context.Context, handler Handler) error

	// Close gracefully shuts down the transport, draining in-flight work.
	Close() error
}
