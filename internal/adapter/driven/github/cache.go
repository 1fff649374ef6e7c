package github

import (
	"context"
	"net/http"

	"github.com/gregjones/httpcache"
)

type cachePolicyKey struct{}

// allowCached marks reads whose cached response may be served while fresh.
// Only upstream template and theme registry reads use it; the site
// repository changes under our own writes.
func allowCached(ctx context.Context) context.Context {
	return context.WithValue(ctx, cachePolicyKey{}, true)
}

// revalidatingTransport asks httpcache to revalidate every GET not marked
// with allowCached. Revalidation is a conditional request, so an unchanged
// resource still costs only a 304.
type revalidatingTransport struct {
	next http.RoundTripper
}

func (t *revalidatingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method == http.MethodGet && req.Header.Get("Cache-Control") == "" {
		if ok, _ := req.Context().Value(cachePolicyKey{}).(bool); !ok {
			req = req.Clone(req.Context())
			req.Header.Set("Cache-Control", "max-age=0")
		}
	}
	return t.next.RoundTrip(req)
}

// NewCachingTransport returns an ETag caching transport over base (nil
// means http.DefaultTransport). Site repository reads always revalidate.
func NewCachingTransport(base http.RoundTripper) http.RoundTripper {
	cache := httpcache.NewTransport(httpcache.NewMemoryCache())
	cache.Transport = base
	cache.MarkCachedResponses = true
	return &revalidatingTransport{next: cache}
}
