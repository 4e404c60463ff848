// Command dequebench drives a concurrent push/pop workload against a
// LockFree or WaitFree deque and reports throughput, replacing the
// teacher's HTTP client/server pair (cmd/client, cmd/server) with a
// single in-process benchmark harness appropriate to a library rather
// than a networked service.
package main

import (
	"fmt"
	"os"
	"sync"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/rishav/concurrent-deque/internal/deque"
	"github.com/rishav/concurrent-deque/internal/telemetry"
)

type config struct {
	progress   string
	capacity   uint64
	producers  int
	consumers  int
	perWorker  int
	pooled     bool
	interval   time.Duration
}

func main() {
	cfg := parseFlags(os.Stderr, os.Args[1:])

	progress := deque.LockFreeProgress
	if cfg.progress == "waitfree" {
		progress = deque.WaitFreeProgress
	}

	deqCfg := deque.DefaultConfig()
	deqCfg.Capacity = cfg.capacity
	if cfg.pooled {
		deqCfg.Provider = deque.NewPoolProvider()
	}

	d, err := deque.New[int](progress, deqCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dequebench: %v\n", err)
		os.Exit(1)
	}

	reporter := telemetry.NewReporter(cfg.interval, 8192)
	reporter.Start()
	defer reporter.Shutdown()

	start := time.Now()
	runWorkload(d, reporter, cfg)
	elapsed := time.Since(start)

	pushes, pops, rejected := reporter.Totals()
	total := cfg.producers*cfg.perWorker + cfg.consumers*cfg.perWorker
	fmt.Printf("progress=%s capacity=%d producers=%d consumers=%d ops=%d elapsed=%s throughput=%.0f ops/s\n",
		cfg.progress, cfg.capacity, cfg.producers, cfg.consumers, total, elapsed, float64(total)/elapsed.Seconds())
	fmt.Printf("pushes=%d pops=%d rejected=%d\n", pushes, pops, rejected)
}

func runWorkload(d *deque.Deque[int], reporter *telemetry.Reporter, cfg config) {
	var wg sync.WaitGroup

	payload := make([]int, cfg.producers*cfg.perWorker)
	for i := range payload {
		payload[i] = i
	}

	wg.Add(cfg.producers)
	for p := 0; p < cfg.producers; p++ {
		p := p
		go func() {
			defer wg.Done()
			for i := 0; i < cfg.perWorker; i++ {
				idx := p*cfg.perWorker + i
				ok, err := d.PushBack(&payload[idx])
				if err != nil {
					fmt.Fprintf(os.Stderr, "dequebench: PushBack: %v\n", err)
					return
				}
				reporter.Record(telemetry.Sample{Op: "push_back", Success: ok})
			}
		}()
	}

	wg.Add(cfg.consumers)
	for c := 0; c < cfg.consumers; c++ {
		go func() {
			defer wg.Done()
			for i := 0; i < cfg.perWorker; i++ {
				_, ok, err := d.PopFront()
				if err != nil {
					fmt.Fprintf(os.Stderr, "dequebench: PopFront: %v\n", err)
					return
				}
				reporter.Record(telemetry.Sample{Op: "pop_front", Success: ok})
			}
		}()
	}

	wg.Wait()
}

func parseFlags(errOut *os.File, args []string) config {
	fs := flag.NewFlagSet("dequebench", flag.ContinueOnError)

	progress := fs.String("progress", "lockfree", "progress guarantee: lockfree or waitfree")
	capacity := fs.Uint64("capacity", 1024, "usable deque capacity")
	producers := fs.Int("producers", 4, "number of producer goroutines")
	consumers := fs.Int("consumers", 4, "number of consumer goroutines")
	perWorker := fs.Int("per-worker", 100000, "operations per goroutine")
	pooled := fs.Bool("pooled", false, "use the sync.Pool-backed memory provider instead of the heap provider")
	interval := fs.Duration("report-interval", time.Second, "telemetry reporting interval")

	fs.Usage = func() {
		fmt.Fprint(errOut, "Usage: dequebench [flags]\n\nFlags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(2)
	}

	return config{
		progress:  *progress,
		capacity:  *capacity,
		producers: *producers,
		consumers: *consumers,
		perWorker: *perWorker,
		pooled:    *pooled,
		interval:  *interval,
	}
}
