// Command bioauth-loadtest drives the hosted reference backend under
// concurrent sign-in load and prints latency percentiles. With no
// -redis-addr it runs fully self-contained on miniredis.
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

	"github.com/veldtbank/bioauth/backend"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func main() {
	var (
		accounts    = flag.Int("accounts", 1000, "number of accounts to seed")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 20000, "sign-in operations to run")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *accounts <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "accounts, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var cleanup func()
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		cleanup = mr.Close
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
	if cleanup != nil {
		defer cleanup()
	}
	defer func() { _ = client.Close() }()

	cfg := backend.DefaultHostedConfig([]byte("loadtest-signing-key"))
	// Attempt limiting would throttle the generator itself.
	cfg.MaxSignInTries = 0
	// Cheap hashing parameters: this measures the backend path, not argon2.
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1

	identity, err := backend.NewHosted(client, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "backend init: %v\n", err)
		os.Exit(1)
	}
	defer identity.Close()

	fmt.Printf("seeding %d accounts...\n", *accounts)
	emails := make([]string, *accounts)
	seedStart := time.Now()
	for i := range emails {
		emails[i] = fmt.Sprintf("user%d@loadtest.local", i)
		if _, err := identity.CreateAccount(ctx, emails[i], "loadtest-pass", "Load Tester"); err != nil {
			fmt.Fprintf(os.Stderr, "seed account %d: %v\n", i, err)
			os.Exit(1)
		}
	}
	fmt.Printf("seeded in %s\n", time.Since(seedStart).Round(time.Millisecond))

	var (
		wg       sync.WaitGroup
		next     atomic.Int64
		failures atomic.Int64
		mu       sync.Mutex
		samples  = make([]time.Duration, 0, *ops)
	)

	runStart := time.Now()
	for w := 0; w < *concurrency; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			perWorker := *ops / *concurrency
			local := make([]time.Duration, 0, perWorker+1)

			for {
				n := next.Add(1)
				if n > int64(*ops) {
					break
				}
				email := emails[rng.Intn(len(emails))]

				start := time.Now()
				_, err := identity.SignIn(ctx, email, "loadtest-pass")
				elapsed := time.Since(start)

				if err != nil {
					failures.Add(1)
					continue
				}
				local = append(local, elapsed)
			}

			mu.Lock()
			samples = append(samples, local...)
			mu.Unlock()
		}(int64(w) + 1)
	}
	wg.Wait()
	total := time.Since(runStart)

	if len(samples) == 0 {
		fmt.Fprintln(os.Stderr, "no successful operations")
		os.Exit(1)
	}

	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	pct := func(p float64) time.Duration {
		idx := int(float64(len(samples)-1) * p)
		return samples[idx]
	}

	fmt.Printf("ops=%d failures=%d elapsed=%s throughput=%.0f/s\n",
		len(samples), failures.Load(), total.Round(time.Millisecond),
		float64(len(samples))/total.Seconds())
	fmt.Printf("latency p50=%s p90=%s p99=%s max=%s\n",
		pct(0.50).Round(time.Microsecond), pct(0.90).Round(time.Microsecond),
		pct(0.99).Round(time.Microsecond), samples[len(samples)-1].Round(time.Microsecond))
}
