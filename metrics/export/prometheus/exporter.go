package prometheus

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MrEthical07/tokenAuth"
	"github.com/MrEthical07/tokenAuth/metrics/export/internaldefs"
)

// Source is satisfied by *tokenAuth.Engine.
type Source interface {
	MetricsSnapshot() tokenAuth.MetricsSnapshot
	AuditDropped() uint64
}

type Exporter struct {
	source Source
}

func New(source Source) *Exporter {
	return &Exporter{source: source}
}

func (e *Exporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		var buf bytes.Buffer
		e.Render(&buf)
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write(buf.Bytes())
	})
}

// Render writes every series in text exposition format. Nothing is written
// while the engine has metrics disabled and no audit events were dropped.
func (e *Exporter) Render(w io.Writer) {
	if e == nil || e.source == nil {
		return
	}

	snap := e.source.MetricsSnapshot()
	dropped := e.source.AuditDropped()
	if len(snap.Counters) == 0 && len(snap.Histograms) == 0 && dropped == 0 {
		return
	}

	for _, d := range internaldefs.Counters {
		writeCounter(w, d, snap.Counters[d.ID])
	}
	for _, d := range internaldefs.Histograms {
		buckets, ok := snap.Histograms[d.ID]
		if !ok {
			continue
		}
		writeHistogram(w, d, internaldefs.Cumulative(buckets), snap.HistogramSums[d.ID])
	}
	writeCounter(w, internaldefs.AuditDropped, dropped)
}

func writeCounter(w io.Writer, d internaldefs.Def, v uint64) {
	fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n%s %d\n", d.Name, escapeHelp(d.Help), d.Name, d.Name, v)
}

func writeHistogram(w io.Writer, d internaldefs.Def, cumulative [8]uint64, sum time.Duration) {
	fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s histogram\n", d.Name, escapeHelp(d.Help), d.Name)
	for i, le := range internaldefs.Bounds {
		fmt.Fprintf(w, "%s_bucket{le=%q} %d\n", d.Name, le, cumulative[i])
	}
	fmt.Fprintf(w, "%s_sum %s\n", d.Name, strconv.FormatFloat(sum.Seconds(), 'g', -1, 64))
	fmt.Fprintf(w, "%s_count %d\n", d.Name, cumulative[len(cumulative)-1])
}

var helpEscaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`)

func escapeHelp(s string) string {
	return helpEscaper.Replace(s)
}
