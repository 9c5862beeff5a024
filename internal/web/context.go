package web

import (
	"context"
	"net/http"

	"github.com/Krish120003/databind/internal/core"
)

// WithRequestMetadata adds the client address and user agent to ctx for
// audit entries. RemoteAddr has already been rewritten by TrustedRealIP.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	return core.ContextWithClient(ctx, core.Client{
		IPAddress: r.RemoteAddr,
		UserAgent: r.UserAgent(),
	})
}

// requestMetadata is WithRequestMetadata as middleware.
func requestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithRequestMetadata(r.Context(), r)))
	})
}
