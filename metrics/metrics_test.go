package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegistryCounters(t *testing.T) {
	reg := New()

	reg.ObserveDocument("activity", "applied")
	reg.ObserveDocument("activity", "applied")
	reg.ObserveDocument("statement", "failed")
	reg.ObserveRow("buy")
	reg.ObserveMerge(5 * time.Millisecond)
	reg.SetPositions("brokerage", 3)

	assert.Equal(t, 2.0, testutil.ToFloat64(reg.Documents.WithLabelValues("activity", "applied")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.Documents.WithLabelValues("statement", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.Rows.WithLabelValues("buy")))
	assert.Equal(t, 3.0, testutil.ToFloat64(reg.Positions.WithLabelValues("brokerage")))
	assert.Equal(t, 2, testutil.CollectAndCount(reg.Documents))
	assert.Equal(t, 1, testutil.CollectAndCount(reg.MergeDuration))
}

func TestRegistryIsolated(t *testing.T) {
	a, b := New(), New()
	a.ObserveRow("sell")

	assert.Equal(t, 1.0, testutil.ToFloat64(a.Rows.WithLabelValues("sell")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Rows.WithLabelValues("sell")))
}

func TestNilRegistry(t *testing.T) {
	var reg *Registry
	reg.ObserveDocument("activity", "applied")
	reg.ObserveRow("buy")
	reg.ObserveMerge(time.Second)
	reg.SetPositions("brokerage", 1)
	assert.NoError(t, reg.WriteTextfile(filepath.Join(t.TempDir(), "never.prom")))
}

func TestWriteTextfile(t *testing.T) {
	reg := New()
	reg.ObserveDocument("activity", "applied")

	path := filepath.Join(t.TempDir(), "holdings.prom")
	assert.NoError(t, reg.WriteTextfile(path))

	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `holdings_documents_total{kind="activity",status="applied"} 1`))
}
