package protocol

import "context"

// Well-known RequestMeta keys set by transports.
const (
	MetaTransport  = "transport"
	MetaRemoteAddr = "remote_addr"
	MetaRequestID  = "x-request-id"
	MetaUserAgent  = "user-agent"
)

type requestMetaKey struct{}

// RequestMeta holds transport-level metadata for a request, such as the
// peer address or selected HTTP headers.
type RequestMeta map[string]string

// ContextWithRequestMeta returns a new context with the request metadata attached.
func ContextWithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFromContext returns the request metadata from the context, or nil.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	meta, _ := ctx.Value(requestMetaKey{}).(RequestMeta)
	return meta
}

// GetRequestMeta returns a single metadata value, or "" when absent.
func GetRequestMeta(ctx context.Context, key string) string {
	return RequestMetaFromContext(ctx)[key]
}

// SetRequestMeta returns a context carrying a copy of the current metadata
// with key set to value.
func SetRequestMeta(ctx context.Context, key, value string) context.Context {
	current := RequestMetaFromContext(ctx)
	meta := make(RequestMeta, len(current)+1)
	for k, v := range current {
		meta[k] = v
	}
	meta[key] = value
	return ContextWithRequestMeta(ctx, meta)
}
