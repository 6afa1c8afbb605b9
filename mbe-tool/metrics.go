package main

import (
	"fmt"
	"io"
	"time"
)

// / The primary interface to metrics. Use
// / defer METRIC_RECORD("foobar").Release() at the top of a function to get
// / timing stats recorded for each call of the function.
func METRIC_RECORD(name string) *ScopedMetric {
	if GMetrics == nil {
		return NewScopedMetric(nil)
	}
	return NewScopedMetric(GMetrics.NewMetric(name))
}

// Set by "-d stats"; nil means metrics are off.
var GMetrics *Metrics = nil

type Metric struct {
	name string
	/// Number of times we've hit the code path.
	count int
	/// Total time (in nanoseconds) we've spent on the code path.
	sum int64
}

// / A scoped object for recording a metric across the body of a function.
// / Used by the METRIC_RECORD function.
type ScopedMetric struct {
	metric_ *Metric
	start_  int64
}

func NewScopedMetric(metric *Metric) *ScopedMetric {
	ret := ScopedMetric{}
	ret.metric_ = metric
	if metric == nil {
		return &ret
	}
	ret.start_ = HighResTimer()
	return &ret
}

func (this *ScopedMetric) Release() {
	if this.metric_ == nil {
		return
	}
	this.metric_.count++
	this.metric_.sum += HighResTimer() - this.start_
}

type Metrics struct {
	metrics_ []*Metric
}

// NewMetric returns the metric called name, creating it on first use.
func (this *Metrics) NewMetric(name string) *Metric {
	for _, metric := range this.metrics_ {
		if metric.name == name {
			return metric
		}
	}
	metric := Metric{}
	metric.name = name
	this.metrics_ = append(this.metrics_, &metric)
	return &metric
}

// / Print a summary report to w.
func (this *Metrics) Report(w io.Writer) {
	width := 0
	for _, i := range this.metrics_ {
		width = max(len(i.name), width)
	}

	fmt.Fprintf(w, "%-*s\t%-6s\t%-9s\t%s\n", width,
		"metric", "count", "avg (us)", "total (ms)")
	for _, metric := range this.metrics_ {
		micros := TimerToMicros(metric.sum)
		total := float64(micros) / float64(1000)
		avg := float64(micros) / float64(metric.count)
		fmt.Fprintf(w, "%-*s\t%-6d\t%-8.1f\t%.1f\n", width, metric.name, metric.count, avg, total)
	}
}

// / Compute a high-res timer value that fits into an int64.
func HighResTimer() int64 {
	return time.Now().UnixNano()
}

func TimerToMicros(dt int64) int64 {
	return time.Duration(dt).Microseconds()
}
