package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/sheetimport/internal/core"
)

// WithRequestMetadata adds the client IP and User-Agent to ctx so background
// imports can log who started them. RemoteAddr has already been resolved by
// middleware.TrustedRealIP.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithIPAddress(ctx, r.RemoteAddr)
	ctx = core.ContextWithUserAgent(ctx, r.Header.Get("User-Agent"))
	return ctx
}
