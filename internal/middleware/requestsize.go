package middleware

import "net/http"

// DefaultMaxRequestSize caps request bodies. Training submissions carry a
// user's full post history, so the cap is generous; a maximum-size train
// request of 100k posts still fits well under it.
const DefaultMaxRequestSize int64 = 32 << 20 // 32MB

// MaxRequestSize rejects oversized request bodies before handlers read them.
func MaxRequestSize(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRequestSize
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Declared length is checked up front; MaxBytesReader catches
			// chunked bodies that lie about it.
			if r.ContentLength > maxBytes {
				http.Error(w, "Request Entity Too Large", http.StatusRequestEntityTooLarge)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			defer r.Body.Close()

			next.ServeHTTP(w, r)
		})
	}
}
