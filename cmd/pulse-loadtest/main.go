package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/pulsemetrics/pulse"
)

func main() {
	var (
		writers  = flag.Int("writers", 64, "number of concurrent writer goroutines")
		ops      = flag.Int("ops", 1000000, "operations per phase")
		meters   = flag.Int("meters", 100, "distinct meter ids per phase")
		step     = flag.Duration("step", time.Second, "aggregation step")
		pollEach = flag.Duration("poll", 250*time.Millisecond, "poll interval for the background reader")
	)
	flag.Parse()

	if *writers <= 0 || *ops <= 0 || *meters <= 0 {
		fmt.Fprintln(os.Stderr, "writers, ops, and meters must be > 0")
		os.Exit(2)
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.WarnLevel)
	registry, err := pulse.New().
		WithStep(*step).
		WithLogger(logger).
		WithCommonTags(pulse.Tag{Key: "app", Value: "pulse-loadtest"}).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "registry build failed: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	var (
		pollWG  sync.WaitGroup
		polls   int64
		samples int64
	)
	pollWG.Add(1)
	go func() {
		defer pollWG.Done()
		ticker := time.NewTicker(*pollEach)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				ms := registry.Measurements()
				atomic.AddInt64(&polls, 1)
				atomic.AddInt64(&samples, int64(len(ms)))
			}
		}
	}()

	fmt.Printf("hammering %d meters with %d writers, %d ops per phase, step %s\n",
		*meters, *writers, *ops, *step)

	maxStats := runPhase("maxgauge", *ops, *writers, func(r *rand.Rand, i int) {
		registry.MaxGauge(meterName("latency.max", r, *meters)).Set(r.Float64() * 100)
	})
	counterStats := runPhase("counter", *ops, *writers, func(r *rand.Rand, i int) {
		registry.Counter(meterName("requests", r, *meters)).Add(1)
	})
	timerStats := runPhase("timer", *ops, *writers, func(r *rand.Rand, i int) {
		registry.Timer(meterName("request.latency", r, *meters)).Record(time.Duration(r.Intn(5000)) * time.Microsecond)
	})

	cancel()
	pollWG.Wait()

	fmt.Println("---- results ----")
	printStats("maxgauge", maxStats)
	printStats("counter", counterStats)
	printStats("timer", timerStats)
	fmt.Printf("background poller: %d cycles, %d samples, %d meters registered\n",
		atomic.LoadInt64(&polls), atomic.LoadInt64(&samples), registry.Size())
}

func meterName(base string, r *rand.Rand, meters int) string {
	return fmt.Sprintf("%s.%d", base, r.Intn(meters))
}

func runPhase(name string, ops, writers int, op func(r *rand.Rand, i int)) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	fmt.Printf("phase %s...\n", name)
	start := time.Now()
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			local := make([]time.Duration, 0, ops/writers+1)
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					break
				}
				t0 := time.Now()
				op(r, i)
				local = append(local, time.Since(t0))
			}
			mu.Lock()
			latencies = append(latencies, local...)
			mu.Unlock()
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies)
}

type phaseStats struct {
	total   time.Duration
	ops     int
	p50     time.Duration
	p95     time.Duration
	p99     time.Duration
	opsPerS float64
}

func computeStats(total time.Duration, samples []time.Duration) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:   total,
		ops:     len(samples),
		p50:     percentile(samples, 50),
		p95:     percentile(samples, 95),
		p99:     percentile(samples, 99),
		opsPerS: float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%-10s ops=%d total=%s ops/s=%.0f p50=%s p95=%s p99=%s\n",
		name, s.ops, s.total.Round(time.Millisecond), s.opsPerS, s.p50, s.p95, s.p99)
}
