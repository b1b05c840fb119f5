package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestMetricsRecordsAggregateHooks(t *testing.T) {
	m := NewMetrics()
	m.ObserveOperation("Registry.ModelAggregate.CreateModel", "success", 20*time.Millisecond)
	m.ObserveOperation("Registry.ModelAggregate.CreateModel", "conflict", 5*time.Millisecond)
	m.IncConflict("Registry.ModelAggregate.CreateModel")

	if got := m.aggregateOps.Value("Registry.ModelAggregate.CreateModel", "success"); got != 1 {
		t.Fatalf("success ops: want=1 got=%v", got)
	}
	if got := m.aggregateConflicts.Value("Registry.ModelAggregate.CreateModel"); got != 1 {
		t.Fatalf("conflicts: want=1 got=%v", got)
	}

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`mh_aggregate_operations_total{op="Registry.ModelAggregate.CreateModel",status="success"} 1.000000`,
		`mh_aggregate_operation_duration_seconds_bucket{op="Registry.ModelAggregate.CreateModel",le="0.01"} 1`,
		`mh_aggregate_operation_duration_seconds_count{op="Registry.ModelAggregate.CreateModel"} 2`,
		"# TYPE mh_redis_up gauge",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("exposition missing %q\n%s", want, out)
		}
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/api/models", "200", time.Millisecond)
	m.APIInflightInc()
	m.IncBusPublish(false)
	if err := m.WritePrometheus(&bytes.Buffer{}); err != nil {
		t.Fatalf("nil WritePrometheus: %v", err)
	}
}

func TestLabelEscaping(t *testing.T) {
	got := labelString([]string{"route"}, []string{`a"b\c`})
	if got != `{route="a\"b\\c"}` {
		t.Fatalf("labelString: got=%s", got)
	}
	if withLe("", "1") != `{le="1"}` {
		t.Fatalf("withLe empty: got=%s", withLe("", "1"))
	}
}

func TestParseHeaders(t *testing.T) {
	h := ParseHeaders("api-key=abc, broken ,x= ")
	if len(h) != 1 || h["api-key"] != "abc" {
		t.Fatalf("ParseHeaders: got=%v", h)
	}
	if ParseHeaders("") != nil {
		t.Fatalf("empty headers should be nil")
	}
}
