package core

import "context"

type contextKey string

const (
	ctxKeyIPAddress contextKey = "requester_ip"
	ctxKeyUserAgent contextKey = "requester_ua"
)

// Requester identifies who started an import. It is recorded on the job and
// in its log lines.
type Requester struct {
	IPAddress string `json:"ipAddress,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
}

// ContextWithIPAddress adds the requester's IP address to ctx.
func ContextWithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyIPAddress, ip)
}

// ContextWithUserAgent adds the requester's User-Agent to ctx.
func ContextWithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, ctxKeyUserAgent, ua)
}

// RequesterFromContext collects the requester metadata stored in ctx.
func RequesterFromContext(ctx context.Context) Requester {
	var r Requester
	if v, ok := ctx.Value(ctxKeyIPAddress).(string); ok {
		r.IPAddress = v
	}
	if v, ok := ctx.Value(ctxKeyUserAgent).(string); ok {
		r.UserAgent = v
	}
	return r
}
