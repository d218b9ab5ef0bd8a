package progress

import (
	"log"
	"time"

	"github.com/dustin/go-humanize"
)

const reportInterval = time.Second

// Reporter throttles progress logging to roughly once per second,
// regardless of how often a caller invokes Tick.
type Reporter struct {
	tracker *Tracker
	last    time.Time
	start   time.Time
}

// NewReporter returns a Reporter bound to tracker. now is the call time
// (callers pass time.Now() — kept as a parameter rather than read
// internally to keep this package free of wall-clock side effects).
func NewReporter(tracker *Tracker, now time.Time) *Reporter {
	return &Reporter{tracker: tracker, last: now, start: now}
}

// Tick logs a summary line if at least reportInterval has elapsed since
// the last one. It returns true if it logged.
func (r *Reporter) Tick(now time.Time) bool {
	if now.Sub(r.last) < reportInterval {
		return false
	}
	r.last = now
	planned, queued, processing, finished := r.tracker.Counts()
	total := planned + queued + processing + finished
	elapsed := now.Sub(r.start)
	log.Printf("progress: %s/%s tiles finished (%s queued, %s processing, %s planned) in %s",
		humanize.Comma(int64(finished)), humanize.Comma(int64(total)),
		humanize.Comma(int64(queued)), humanize.Comma(int64(processing)), humanize.Comma(int64(planned)),
		elapsed.Round(time.Second))
	return true
}
