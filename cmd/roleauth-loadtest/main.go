// Command roleauth-loadtest drives concurrent recruiter session verification
// and renewal against a Redis-backed engine and prints latency percentiles.
package main

import (
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	mrand "math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	roleAuth "github.com/MrEthical07/roleAuth"
	"github.com/MrEthical07/roleAuth/identity"
	"github.com/MrEthical07/roleAuth/password"
)

const loadSecret = "Load-Test-Secret-1"

// recruiterSession is the client-side view of one recruiter: the renewal token
// it currently holds. Renewals for one recruiter are serialized like a single
// browser would.
type recruiterSession struct {
	email   string
	renewal string
	mu      sync.Mutex
}

func main() {
	var (
		recruiters  = flag.Int("recruiters", 2000, "number of recruiter identities to seed")
		concurrency = flag.Int("concurrency", 128, "number of concurrent workers")
		ops         = flag.Int("ops", 50000, "operations per phase (verify + renew)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "roleauth-load", "identity key prefix")
	)
	flag.Parse()

	if *recruiters <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "recruiters, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	client, cleanup, err := connect(*redisAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "redis: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	store := identity.NewRedisStore(client, *prefix)
	engine, err := newEngine(store)
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	fmt.Printf("seeding and logging in %d recruiters...\n", *recruiters)
	startSeed := time.Now()
	sessions, err := seed(ctx, engine, store, *recruiters)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	verify := runPhase(*ops, *concurrency, sessions, func(s *recruiterSession) error {
		s.mu.Lock()
		token := s.renewal
		s.mu.Unlock()
		_, err := engine.VerifyRecruiterSession(ctx, token)
		return err
	})
	renew := runPhase(*ops, *concurrency, sessions, func(s *recruiterSession) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		res, err := engine.RenewRecruiterSession(ctx, s.renewal)
		if err != nil {
			return err
		}
		s.renewal = res.RenewalToken
		return nil
	})

	fmt.Println("---- results ----")
	verify.print("verify")
	renew.print("renew")
	snap := engine.MetricsSnapshot()
	fmt.Printf("engine: verify_ok=%d verify_fail=%d renew_ok=%d renew_fail=%d\n",
		snap.Counters[roleAuth.MetricRecruiterVerifySuccess],
		snap.Counters[roleAuth.MetricRecruiterVerifyFailure],
		snap.Counters[roleAuth.MetricRecruiterRenewSuccess],
		snap.Counters[roleAuth.MetricRecruiterRenewFailure],
	)
}

func connect(addr string) (redis.UniversalClient, func(), error) {
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr != "" {
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		fmt.Printf("using redis at %s\n", addr)
		return client, func() { _ = client.Close() }, nil
	}

	mr, err := miniredis.Run()
	if err != nil {
		return nil, nil, fmt.Errorf("start miniredis: %w", err)
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
	fmt.Printf("using miniredis at %s\n", mr.Addr())
	return client, func() {
		_ = client.Close()
		mr.Close()
	}, nil
}

func newEngine(store identity.Store) (*roleAuth.Engine, error) {
	cfg := roleAuth.DefaultConfig()
	cfg.JWT.AccessSecret = randomSecret()
	cfg.JWT.RenewalSecret = randomSecret()
	cfg.Metrics.EnableLatencyHistograms = false
	return roleAuth.New().WithConfig(cfg).WithStore(store).Build()
}

func randomSecret() []byte {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

func seed(ctx context.Context, engine *roleAuth.Engine, store identity.Store, n int) ([]recruiterSession, error) {
	hasher, err := password.NewArgon2(password.Argon2Config{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	if err != nil {
		return nil, err
	}
	hash, err := hasher.Hash(loadSecret)
	if err != nil {
		return nil, err
	}

	sessions := make([]recruiterSession, n)
	for i := range sessions {
		email := fmt.Sprintf("recruiter-%d@load.example", i)
		err := store.Create(ctx, &identity.Identity{
			OrganizationID: "load",
			Email:          email,
			CredentialHash: hash,
			Role:           identity.RoleRecruiter,
			Active:         true,
			ApprovalState:  identity.ApprovalApproved,
		})
		if err != nil {
			return nil, err
		}
		res, err := engine.Login(ctx, roleAuth.LoginRequest{Email: email, Secret: loadSecret, Role: identity.RoleRecruiter})
		if err != nil {
			return nil, err
		}
		sessions[i].email = email
		sessions[i].renewal = res.RenewalToken
	}
	return sessions, nil
}

func runPhase(ops, concurrency int, sessions []recruiterSession, op func(*recruiterSession) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := mrand.New(mrand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for atomic.AddInt64(&cursor, 1) <= int64(ops) {
				s := &sessions[r.Intn(len(sessions))]
				t0 := time.Now()
				err := op(s)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(sorted []time.Duration, p int) time.Duration {
	switch {
	case len(sorted) == 0:
		return 0
	case p <= 0:
		return sorted[0]
	case p >= 100:
		return sorted[len(sorted)-1]
	}
	return sorted[(len(sorted)-1)*p/100]
}

func (s phaseStats) print(name string) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
