package telemetry

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetMetrics(t *testing.T) {
	m := GetMetrics()

	require.NotNil(t, m.EnrollmentsTotal)
	require.NotNil(t, m.EnrollmentDuration)
	require.NotNil(t, m.IssuancePollAttempts)
	require.NotNil(t, m.RootCertificateRequestsTotal)
	require.Same(t, m, GetMetrics())
}

func TestInstrumentHandler(t *testing.T) {
	handler := InstrumentHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}), "test")

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusTeapot, w.Code)
}
