package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/calendar-secretary/internal/logging"
)

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	t.Run("attaches a request scoped logger to the context", func(t *testing.T) {
		t.Parallel()

		var sawLogger bool
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sawLogger = logging.FromContext(r.Context()) != nil
			w.WriteHeader(http.StatusNoContent)
		})

		handler := RequestLogger(discardLogger())(inner)
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		if recorder.Code != http.StatusNoContent {
			t.Fatalf("status = %d, want 204", recorder.Code)
		}
		if !sawLogger {
			t.Error("handler did not receive a context logger")
		}
	})
}
