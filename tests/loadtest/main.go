package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

const (
	baseURL      = "http://127.0.0.1:8090"
	numWorkers   = 50
	testDuration = 10 * time.Second
	numUsers     = 2000
)

var venues = []string{"bass", "sterling", "marx", "atticus", "commons"}

var httpClient = &http.Client{
	Timeout: 5 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        200,
		MaxIdleConnsPerHost: 200,
		IdleConnTimeout:     30 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   2 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	},
}

type result struct {
	endpoint string
	status   int
	latency  time.Duration
	err      bool
}

type stats struct {
	count     int64
	errors    int64
	latencies []time.Duration
}

func main() {
	fmt.Println("=== SeatCheck Load Test ===")
	fmt.Printf("Workers: %d | Duration: %s\n", numWorkers, testDuration)
	fmt.Printf("Users: %d | Venues: %d\n\n", numUsers, len(venues))

	fmt.Print("Waiting for server... ")
	for i := 0; i < 30; i++ {
		resp, err := httpClient.Get(baseURL + "/health")
		if err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			break
		}
		if i == 29 {
			fmt.Println("FAILED: server not responding")
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	fmt.Println("OK")

	fmt.Println("\n--- Phase 1: Check-ins and ratings ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		if rng.Float64() < 0.6 {
			return doCheckIn(rng)
		}
		return doRating(rng)
	})

	fmt.Println("\n--- Phase 2: Mixed load (heartbeats, moves, reads) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.30:
			return doHeartbeat(rng)
		case r < 0.45:
			return doCheckIn(rng)
		case r < 0.55:
			return doCheckOut(rng)
		case r < 0.65:
			return doRating(rng)
		case r < 0.85:
			return doGetVenue(rng, "stats")
		default:
			return doGetVenue(rng, "status")
		}
	})

	fmt.Println("\n--- Phase 3: Read-heavy load ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.10:
			return doHeartbeat(rng)
		case r < 0.40:
			return doGetVenue(rng, "occupancy")
		case r < 0.70:
			return doGetVenue(rng, "stats")
		case r < 0.90:
			return doGetVenue(rng, "status")
		default:
			return doGetVenues()
		}
	})
}

func runPhase(duration time.Duration, workFn func(rng *rand.Rand) result) {
	results := make(chan result, 10000)
	var wg sync.WaitGroup
	var totalOps atomic.Int64
	stop := make(chan struct{})

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for {
				select {
				case <-stop:
					return
				default:
					r := workFn(rng)
					totalOps.Add(1)
					results <- r
				}
			}
		}(rand.Int63() + int64(i))
	}

	allResults := make(map[string]*stats)
	done := make(chan struct{})
	go func() {
		for r := range results {
			s, ok := allResults[r.endpoint]
			if !ok {
				s = &stats{}
				allResults[r.endpoint] = s
			}
			s.count++
			if r.err {
				s.errors++
			}
			s.latencies = append(s.latencies, r.latency)
		}
		close(done)
	}()

	time.Sleep(duration)
	close(stop)
	wg.Wait()
	close(results)
	<-done

	printResults(allResults, duration)
}

func printResults(allResults map[string]*stats, duration time.Duration) {
	var totalOps int64
	var totalErrors int64

	endpoints := make([]string, 0, len(allResults))
	for ep := range allResults {
		endpoints = append(endpoints, ep)
	}
	sort.Strings(endpoints)

	fmt.Printf("\n  %-22s %8s %6s %10s %10s %10s %10s\n",
		"Endpoint", "Reqs", "Errs", "Avg", "P50", "P95", "P99")
	fmt.Println("  " + repeat("-", 88))

	for _, ep := range endpoints {
		s := allResults[ep]
		totalOps += s.count
		totalErrors += s.errors

		sort.Slice(s.latencies, func(i, j int) bool {
			return s.latencies[i] < s.latencies[j]
		})

		avg := avgDuration(s.latencies)
		p50 := percentile(s.latencies, 0.50)
		p95 := percentile(s.latencies, 0.95)
		p99 := percentile(s.latencies, 0.99)

		fmt.Printf("  %-22s %8d %6d %10s %10s %10s %10s\n",
			ep, s.count, s.errors, fmtDur(avg), fmtDur(p50), fmtDur(p95), fmtDur(p99))
	}

	rps := float64(totalOps) / duration.Seconds()
	fmt.Println("  " + repeat("-", 88))
	fmt.Printf("  Total: %d reqs | Errors: %d (%.1f%%) | RPS: %.0f\n",
		totalOps, totalErrors, float64(totalErrors)/float64(totalOps)*100, rps)
}

func user(rng *rand.Rand) string {
	return fmt.Sprintf("user_%d", rng.Intn(numUsers))
}

func venue(rng *rand.Rand) string {
	return venues[rng.Intn(len(venues))]
}

func send(endpoint, method, url, userID string, body interface{}, okStatus ...int) result {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req, _ := http.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
	}

	start := time.Now()
	resp, err := httpClient.Do(req)
	lat := time.Since(start)
	if err != nil {
		return result{endpoint, 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	failed := true
	for _, code := range okStatus {
		if resp.StatusCode == code {
			failed = false
		}
	}
	return result{endpoint, resp.StatusCode, lat, failed}
}

func doCheckIn(rng *rand.Rand) result {
	body := map[string]string{"venue_id": venue(rng)}
	return send("POST /checkins", http.MethodPost, baseURL+"/checkins", user(rng), body, 200, 201)
}

// A user without an open presence answers 404, which is expected under load.
func doHeartbeat(rng *rand.Rand) result {
	return send("POST /checkins/heartbeat", http.MethodPost, baseURL+"/checkins/heartbeat", user(rng), nil, 200, 404)
}

func doCheckOut(rng *rand.Rand) result {
	body := map[string]string{"venue_id": venue(rng)}
	return send("POST /checkins/checkout", http.MethodPost, baseURL+"/checkins/checkout", user(rng), body, 204, 404, 409)
}

func doRating(rng *rand.Rand) result {
	body := map[string]interface{}{
		"venue_id":  venue(rng),
		"occupancy": rng.Intn(5) + 1,
		"noise":     rng.Intn(5) + 1,
	}
	return send("POST /ratings", http.MethodPost, baseURL+"/ratings", "", body, 201)
}

func doGetVenue(rng *rand.Rand, view string) result {
	url := fmt.Sprintf("%s/venues/%s/%s", baseURL, venue(rng), view)
	return send("GET /venues/{id}/"+view, http.MethodGet, url, "", nil, 200)
}

func doGetVenues() result {
	return send("GET /venues", http.MethodGet, baseURL+"/venues", "", nil, 200)
}

func avgDuration(d []time.Duration) time.Duration {
	if len(d) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range d {
		sum += v
	}
	return sum / time.Duration(len(d))
}

func percentile(d []time.Duration, p float64) time.Duration {
	if len(d) == 0 {
		return 0
	}
	idx := int(float64(len(d)) * p)
	if idx >= len(d) {
		idx = len(d) - 1
	}
	return d[idx]
}

func fmtDur(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000.0)
}

func repeat(s string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += s
	}
	return out
}
