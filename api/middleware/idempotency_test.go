package middleware

import (
	"net/http"
	"testing"
)

func TestRouteTTLCoversWriteEndpoints(t *testing.T) {
	cases := []struct {
		method  string
		pattern string
		want    bool
		ttl     int64
	}{
		{http.MethodPost, "/api/checkout", true, int64(criticalIdempotencyTTL)},
		{http.MethodPost, "/api/checkout/", true, int64(criticalIdempotencyTTL)},
		{http.MethodPost, "/api/payment/create-intent", true, int64(criticalIdempotencyTTL)},
		{http.MethodPost, "/api/admin/products", true, int64(defaultIdempotencyTTL)},
		{http.MethodPost, "/api/admin/orders", true, int64(defaultIdempotencyTTL)},
		{http.MethodGet, "/api/checkout", false, 0},
		{http.MethodPost, "/api/products", false, 0},
		{http.MethodPost, "", false, 0},
	}
	for _, tc := range cases {
		ttl, ok := routeTTL(tc.method, tc.pattern)
		if ok != tc.want {
			t.Errorf("routeTTL(%s %s) matched = %v, want %v", tc.method, tc.pattern, ok, tc.want)
			continue
		}
		if ok && int64(ttl) != tc.ttl {
			t.Errorf("routeTTL(%s %s) = %v, want %v", tc.method, tc.pattern, ttl, tc.ttl)
		}
	}
}
