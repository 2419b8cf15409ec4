package testutil

import (
	"net/http"
	"time"

	"kycdesk/pkg/requestcontext"
)

// AsAdmin attaches an authenticated admin identity to req, the way RequireAuth would.
func AsAdmin(req *http.Request, userID, role string) *http.Request {
	ctx := requestcontext.WithUserID(req.Context(), userID)
	ctx = requestcontext.WithUserRole(ctx, role)
	return req.WithContext(ctx)
}

// At pins the request clock.
func At(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}

// WithClient attaches client metadata to req.
func WithClient(req *http.Request, ip, userAgent string) *http.Request {
	return req.WithContext(requestcontext.WithClientMetadata(req.Context(), ip, userAgent))
}
