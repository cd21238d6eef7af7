package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector(t *testing.T) {
	t.Run("Should count fetches by key and outcome", func(t *testing.T) {
		c := NewCollector("test")
		c.RecordStart()
		c.RecordStart()
		c.RecordFinish("form", "success", 10*time.Millisecond)
		c.RecordOutcome("form", "noop")
		c.RecordAlert()

		if got := testutil.ToFloat64(c.inflight); got != 1 {
			t.Fatalf("\nwanted:\n1\ngot:\n%v", got)
		}
		if got := testutil.ToFloat64(c.fetchTotal.WithLabelValues("form", "success")); got != 1 {
			t.Fatalf("\nwanted:\n1\ngot:\n%v", got)
		}
		if got := testutil.ToFloat64(c.fetchTotal.WithLabelValues("form", "noop")); got != 1 {
			t.Fatalf("\nwanted:\n1\ngot:\n%v", got)
		}
		if got := testutil.ToFloat64(c.alerts); got != 1 {
			t.Fatalf("\nwanted:\n1\ngot:\n%v", got)
		}
	})

	t.Run("Nil collector should not panic", func(t *testing.T) {
		var c *Collector
		c.RecordStart()
		c.RecordFinish("form", "error", time.Second)
		c.RecordOutcome("form", "noop")
		c.RecordAlert()
	})

	t.Run("Register should expose metrics on another registry", func(t *testing.T) {
		c := NewCollector("")
		reg := prometheus.NewRegistry()
		if err := c.Register(reg); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		c.RecordAlert()
		families, err := reg.Gather()
		if err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}
		found := false
		for _, f := range families {
			if f.GetName() == "mirsal_alerts_total" {
				found = true
			}
		}
		if !found {
			t.Fatal("wanted mirsal_alerts_total in gathered families")
		}
	})
}
