package handler

import (
	"net/http"
	"strings"
)

// cachedMedia guards the cache file server. Files are named by content id and
// never change once written, so they can be cached forever; directory
// listings are refused.
func cachedMedia(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.Contains(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		next.ServeHTTP(w, r)
	})
}
