package core

import "context"

type clientKey struct{}

// Client identifies who issued a request, for audit entries.
type Client struct {
	IPAddress string
	UserAgent string
}

// ContextWithClient attaches c to ctx.
func ContextWithClient(ctx context.Context, c Client) context.Context {
	return context.WithValue(ctx, clientKey{}, c)
}

// ClientFromContext returns the client stored by ContextWithClient.
func ClientFromContext(ctx context.Context) Client {
	c, _ := ctx.Value(clientKey{}).(Client)
	return c
}
