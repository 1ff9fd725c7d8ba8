package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	hits := testutil.ToFloat64(renders.WithLabelValues("hit"))
	misses := testutil.ToFloat64(renders.WithLabelValues("miss"))
	CountCacheHit()
	ObserveRender(3 * time.Millisecond)
	assert.Equal(t, hits+1, testutil.ToFloat64(renders.WithLabelValues("hit")))
	assert.Equal(t, misses+1, testutil.ToFloat64(renders.WithLabelValues("miss")))

	failed := testutil.ToFloat64(diagrams.WithLabelValues("error"))
	CountDiagram(errors.New("boom"))
	CountDiagram(nil)
	assert.Equal(t, failed+1, testutil.ToFloat64(diagrams.WithLabelValues("error")))

	ObserveRequest("/docs/*", http.StatusOK, time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(httpRequests.WithLabelValues("/docs/*", "200")))
}

func TestHandler(t *testing.T) {
	CountCacheHit()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mdkit_renders_total")
}
