package httpx

import (
	"net/http"
	"runtime/debug"

	"github.com/aussiebroadwan/explorer/pkg/slogx"
)

// Recover turns a handler panic into a 500 JSON response and logs the stack.
func Recover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				slogx.FromContext(r.Context()).Error("panic in handler",
					"panic", rec,
					"stack", string(debug.Stack()),
				)
				WriteError(w, http.StatusInternalServerError, "Internal server error")
			}()
			next.ServeHTTP(w, r)
		})
	}
}
