package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Config holds the benchmark settings
var (
	targetURL   string
	concurrency int
	duration    time.Duration
	maxAccount  int64
)

// Metrics
var (
	totalRequests uint64
	accepted201   uint64 // PROCESSING
	rejected4xx   uint64 // policy/validation rejections
	failOther     uint64
)

func init() {
	flag.StringVar(&targetURL, "url", "http://localhost:8080", "API Base URL")
	flag.IntVar(&concurrency, "workers", 10, "Number of concurrent workers")
	flag.DurationVar(&duration, "duration", 30*time.Second, "Test duration")
	flag.Int64Var(&maxAccount, "accounts", 1000, "Account id range to draw from")
}

func main() {
	flag.Parse()
	log.Printf("Starting Benchmark | Workers: %d | Duration: %s", concurrency, duration)

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(concurrency)

	for i := 0; i < concurrency; i++ {
		go worker(&wg, start)
	}

	wg.Wait()
	printResults(time.Since(start))
}

func worker(wg *sync.WaitGroup, start time.Time) {
	defer wg.Done()
	client := &http.Client{Timeout: 10 * time.Second}

	for time.Since(start) < duration {
		from := rand.Int63n(maxAccount) + 1
		to := rand.Int63n(maxAccount) + 1

		payload, _ := json.Marshal(map[string]any{
			"from_account": from,
			"to_account":   to,
			"amount":       1000 + rand.Float64()*4000,
		})

		resp, err := client.Post(targetURL+"/api/v1/transactions", "application/json", bytes.NewReader(payload))
		atomic.AddUint64(&totalRequests, 1)
		if err != nil {
			atomic.AddUint64(&failOther, 1)
			continue
		}
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusCreated:
			atomic.AddUint64(&accepted201, 1)
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			atomic.AddUint64(&rejected4xx, 1)
		default:
			atomic.AddUint64(&failOther, 1)
		}
	}
}

func printResults(elapsed time.Duration) {
	total := atomic.LoadUint64(&totalRequests)
	fmt.Println("\n--- Benchmark Results ---")
	fmt.Printf("Elapsed:       %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("Requests:      %d (%.1f req/s)\n", total, float64(total)/elapsed.Seconds())
	fmt.Printf("Accepted 201:  %d\n", atomic.LoadUint64(&accepted201))
	fmt.Printf("Rejected 4xx:  %d\n", atomic.LoadUint64(&rejected4xx))
	fmt.Printf("Failures:      %d\n", atomic.LoadUint64(&failOther))
}
