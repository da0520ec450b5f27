/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Command cachesim runs a randomized multi-worker workload against a single
// shared LRU cache and reports operation and cache statistics. Misses are
// loaded through the cache from a simulated flaky backing store with
// exponential backoff retries.
package main

import (
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ssgreg/logf"
	"go.uber.org/atomic"

	"github.com/acronis/go-lrucache/lrucache"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "cachesim:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger, closeLogger := newLogger(&cfg.Log)
	defer closeLogger()

	metrics := lrucache.NewPrometheusMetricsWithOpts(lrucache.PrometheusMetricsOpts{Namespace: envPrefix})
	metrics.MustRegister()
	defer metrics.Unregister()

	cache, err := lrucache.NewWithConfig[string, int](&cfg.Cache, metrics)
	if err != nil {
		return err
	}

	sim := &simulation{
		cfg:    &cfg.Sim,
		cache:  cache,
		store:  newFlakyStore(cfg.Sim.StoreFailurePercent),
		logger: logger,
	}

	logger.Info("starting simulation",
		logf.Int("workers", cfg.Sim.Workers),
		logf.Int("opsPerWorker", cfg.Sim.OpsPerWorker),
		logf.Int("keySpace", cfg.Sim.KeySpace),
		logf.Int("cacheCapacity", cache.Capacity()))

	startTime := time.Now()
	sim.run()
	elapsed := time.Since(startTime)

	stats := cache.Stats()
	logger.Info("simulation complete",
		logf.Duration("elapsed", elapsed),
		logf.Int64("gets", sim.gets.Load()),
		logf.Int64("loads", sim.loads.Load()),
		logf.Int64("loadFailures", sim.loadFailures.Load()),
		logf.Int64("adds", sim.adds.Load()),
		logf.Int64("removes", sim.removes.Load()),
		logf.Int64("successfulRemoves", sim.successfulRemoves.Load()),
		logf.Int("finalSize", cache.Len()),
		logf.Uint64("hits", stats.Hits),
		logf.Uint64("misses", stats.Misses),
		logf.Float64("hitRatio", cache.HitRatio()))

	return nil
}

type simulation struct {
	cfg    *SimConfig
	cache  *lrucache.LRUCache[string, int]
	store  *flakyStore
	logger *logf.Logger

	gets              atomic.Int64
	loads             atomic.Int64
	loadFailures      atomic.Int64
	adds              atomic.Int64
	removes           atomic.Int64
	successfulRemoves atomic.Int64
}

func (s *simulation) run() {
	var wg sync.WaitGroup
	wg.Add(s.cfg.Workers)
	for w := 0; w < s.cfg.Workers; w++ {
		go func(w int) {
			defer wg.Done()
			s.runWorker(w)
		}(w)
	}
	wg.Wait()
}

func (s *simulation) runWorker(id int) {
	logger := s.logger.With(logf.Int("worker", id))
	rnd := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)))

	logger.Debug("worker started", logf.Int("operations", s.cfg.OpsPerWorker))

	for i := 0; i < s.cfg.OpsPerWorker; i++ {
		key := fmt.Sprintf("key_%d", rnd.Intn(s.cfg.KeySpace))

		switch op := rnd.Intn(100); {
		case op < s.cfg.GetPercent:
			s.gets.Inc()
			value, err := s.cache.GetOrLoad(key, func() (int, error) {
				s.loads.Inc()
				return s.store.fetchWithRetry(key, logger)
			})
			if err != nil {
				s.loadFailures.Inc()
				logger.Debug("load failed", logf.String("key", key), logf.Error(err))
				break
			}
			if i%200 == 0 {
				logger.Debug("get", logf.String("key", key), logf.Int("value", value))
			}
		case op < s.cfg.GetPercent+s.cfg.AddPercent:
			value := rnd.Intn(1000) + 1
			s.cache.Add(key, value)
			s.adds.Inc()
		default:
			removed := s.cache.Remove(key)
			s.removes.Inc()
			if removed {
				s.successfulRemoves.Inc()
			}
		}

		if s.cfg.MaxOpDelay > 0 {
			time.Sleep(time.Duration(rnd.Int63n(int64(s.cfg.MaxOpDelay))))
		}
	}

	logger.Debug("worker finished")
}

// errStoreUnavailable is the transient failure injected by the simulated backing store.
var errStoreUnavailable = errors.New("store temporarily unavailable")

// flakyStore simulates a slow backing store that fails transiently
// at the configured rate.
type flakyStore struct {
	failurePercent int

	mu  sync.Mutex
	rnd *rand.Rand
}

func newFlakyStore(failurePercent int) *flakyStore {
	return &flakyStore{
		failurePercent: failurePercent,
		rnd:            rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *flakyStore) fetch(string) (int, error) {
	s.mu.Lock()
	failed := s.rnd.Intn(100) < s.failurePercent
	value := s.rnd.Intn(1000) + 1
	s.mu.Unlock()

	if failed {
		return 0, errStoreUnavailable
	}
	return value, nil
}

// fetchWithRetry fetches the value with exponential backoff on transient failures.
func (s *flakyStore) fetchWithRetry(key string, logger *logf.Logger) (int, error) {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = time.Millisecond
	eb.MaxInterval = 10 * time.Millisecond

	var value int
	op := func() error {
		v, err := s.fetch(key)
		if err != nil {
			return err
		}
		value = v
		return nil
	}
	notify := func(err error, delay time.Duration) {
		logger.Debug("retrying store fetch",
			logf.String("key", key), logf.Error(err), logf.Duration("backoff", delay))
	}
	if err := backoff.RetryNotify(op, backoff.WithMaxRetries(eb, 5), notify); err != nil {
		return 0, fmt.Errorf("fetch %q from store: %w", key, err)
	}
	return value, nil
}
