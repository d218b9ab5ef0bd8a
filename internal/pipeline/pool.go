package pipeline

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/freemapslovakia/lazdem/internal/progress"
	"github.com/freemapslovakia/lazdem/internal/tilegeom"
)

// Record is one encoded payload ready to be written to the output
// container: a DEM blob or a shaded-image blob, produced for a single
// tile.
type Record struct {
	Tile tilegeom.Tile
	Data []byte
}

// Writer persists Records to the output container. A single goroutine
// owns the Writer for the life of a Run, so implementations need not be
// safe for concurrent use.
type Writer interface {
	Write(Record) error
}

// ResumeChecker lets a Run skip tiles already present from a prior,
// interrupted run.
type ResumeChecker interface {
	HasTile(tile tilegeom.Tile) (bool, error)
}

// Processor produces zero or more Records for one job. An empty, nil
// slice with a nil error means the tile had no payload (e.g. an empty
// rasterize result or an overview with a missing interior child) and
// should be marked done without being written.
type Processor func(ctx context.Context, job progress.Job) ([]Record, error)

// ThrottleFunc, if non-nil, is polled between jobs; a worker blocks in a
// short sleep loop while it returns true. This is the hook for an
// external "pause production" sentinel file.
type ThrottleFunc func() bool

// Run drains tracker with numWorkers concurrent goroutines, each calling
// process for its job and forwarding the resulting Records to a single
// writer goroutine over a bounded channel. Run blocks until the tracker
// has no more work and every in-flight job has been written.
func Run(ctx context.Context, tracker *progress.Tracker, numWorkers int, writeBuffer int, process Processor, writer Writer, resume ResumeChecker, throttle ThrottleFunc) error {
	writeCh := make(chan Record, writeBuffer)
	var writeErr error
	var writeErrOnce sync.Once

	var writerWG sync.WaitGroup
	writerWG.Add(1)
	go func() {
		defer writerWG.Done()
		for rec := range writeCh {
			if err := writer.Write(rec); err != nil {
				writeErrOnce.Do(func() { writeErr = err })
				log.Printf("pipeline: write failed for tile %s: %v", rec.Tile, err)
			}
		}
	}()

	var workersWG sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		workersWG.Add(1)
		go func() {
			defer workersWG.Done()
			runWorker(ctx, tracker, process, writeCh, resume, throttle)
		}()
	}
	workersWG.Wait()
	close(writeCh)
	writerWG.Wait()
	return writeErr
}

func runWorker(ctx context.Context, tracker *progress.Tracker, process Processor, writeCh chan<- Record, resume ResumeChecker, throttle ThrottleFunc) {
	for {
		if ctx.Err() != nil {
			return
		}
		for throttle != nil && throttle() {
			time.Sleep(200 * time.Millisecond)
			if ctx.Err() != nil {
				return
			}
		}

		job, ok := tracker.Next()
		if !ok {
			if !tracker.Remaining() {
				return
			}
			// Other workers are still producing the children this
			// worker's queued jobs depend on; back off briefly.
			time.Sleep(10 * time.Millisecond)
			continue
		}

		if resume != nil {
			if present, err := resume.HasTile(job.Tile); err == nil && present {
				tracker.Done(job.Tile)
				continue
			} else if err != nil {
				log.Printf("pipeline: resume check failed for tile %s: %v", job.Tile, err)
			}
		}

		records, err := process(ctx, job)
		if err != nil {
			log.Printf("pipeline: job for tile %s failed: %v", job.Tile, err)
			tracker.Done(job.Tile)
			continue
		}
		for _, rec := range records {
			writeCh <- rec
		}
		tracker.Done(job.Tile)
	}
}
