package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRender(t *testing.T) {
	c := New(prometheus.NewRegistry())

	c.ObserveRender("ok", 40*time.Millisecond)
	c.ObserveRender("ok", 60*time.Millisecond)
	c.ObserveRender("superseded", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.renders.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.renders.WithLabelValues("superseded")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.renders.WithLabelValues("error")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.renderDuration))
}

func TestRecordClassification(t *testing.T) {
	c := New(nil)
	c.RecordClassification("matched")
	c.RecordClassification("matched")
	c.RecordClassification("blocked_warnings")

	expected := `
# HELP batscope_classifications_total Auto-id classification attempts by outcome
# TYPE batscope_classifications_total counter
batscope_classifications_total{outcome="blocked_warnings"} 1
batscope_classifications_total{outcome="matched"} 2
`
	require.NoError(t, testutil.CollectAndCompare(c.classifications, strings.NewReader(expected)))
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)
	c.ObserveRender("ok", 10*time.Millisecond)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `batscope_renders_total{status="ok"} 1`)
	assert.Contains(t, rec.Body.String(), "batscope_render_duration_seconds_count 1")
}
