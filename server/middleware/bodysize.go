package middleware

import (
	"net/http"

	"github.com/kbukum/ragflow/util"
)

const defaultMaxBodySize = 12 << 20

// BodySizeLimit caps request bodies at maxSize ("12MB", "512KB").
func BodySizeLimit(maxSize string) Middleware {
	size := util.ParseSize(maxSize, defaultMaxBodySize)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, size)
			}
			next.ServeHTTP(w, r)
		})
	}
}
