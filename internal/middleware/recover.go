package middleware

import (
	"fmt"
	"net/http"

	"paygate-be/internal/logger"
	"paygate-be/internal/utils"

	"go.uber.org/zap"
)

// RecoverPanic turns a handler panic into a 500 and closes the connection.
func RecoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.FromCtx(r.Context()).Error("panic recovered",
					zap.String("path", r.URL.Path),
					zap.Error(fmt.Errorf("%v", rec)),
					zap.Stack("stack"),
				)
				w.Header().Set("Connection", "close")
				utils.WriteJSONError(w, "Internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
