package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordLedger(t *testing.T) {
	before := testutil.ToFloat64(ledgerOps.WithLabelValues("debit", "balance", "error"))
	RecordLedger("debit", "balance", errors.New("boom"))
	assert.Equal(t, before+1, testutil.ToFloat64(ledgerOps.WithLabelValues("debit", "balance", "error")))
}

func TestRequestStarted(t *testing.T) {
	done := RequestStarted("GET", "/health")
	assert.Equal(t, float64(1), testutil.ToFloat64(httpInFlight))
	done(200)
	assert.Equal(t, float64(0), testutil.ToFloat64(httpInFlight))
	assert.Equal(t, float64(1), testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/health", "200")))
}

func TestHandlerExposesNamespace(t *testing.T) {
	RecordWebhook("invalid_signature")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `linkmart_paystack_webhooks_total{result="invalid_signature"}`)
}
