//go:build ignore
// +build ignore

// Package main provides a manual concurrency stress test for the category
// find-or-create path of the Library API.
//
// Usage:
//
//	TOKEN=<jwt> go run ./scripts/concurrency_test.go [category_name] [workers]
//
// Or with explicit environment variables:
//
//	TOKEN=<jwt> CATEGORY=<name> WORKERS=<n> go run ./scripts/concurrency_test.go
//
// What it does:
//  1. Fires N goroutines, each creating a book that names the same
//     not-yet-existing category, released simultaneously.
//  2. Prints how many creations succeeded and with what statuses.
//  3. Lists /api/categories afterwards and counts rows carrying the
//     contested name — exactly one row must exist and every create must
//     have succeeded.
//
// Prerequisites:
//   - Server must be running and migrated.
//   - TOKEN must be a valid token from /api/auth/login.
//   - The category name must not exist yet (the default includes a
//     timestamp so reruns stay fresh).

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"
)

const defaultServerAddr = "http://localhost:8080"
const defaultWorkers = 10

type createResult struct {
	Worker     int
	StatusCode int
	Err        error
}

func main() {
	serverAddr := os.Getenv("SERVER_ADDR")
	if serverAddr == "" {
		serverAddr = defaultServerAddr
	}

	token := os.Getenv("TOKEN")
	if token == "" {
		log.Fatal("TOKEN must be set to a valid token from /api/auth/login")
	}

	category := os.Getenv("CATEGORY")
	workers := defaultWorkers
	if w := os.Getenv("WORKERS"); w != "" {
		if n, err := strconv.Atoi(w); err == nil && n > 0 {
			workers = n
		}
	}

	// Support positional args: script [category_name] [workers]
	args := os.Args[1:]
	if len(args) >= 1 {
		category = args[0]
	}
	if len(args) >= 2 {
		if n, err := strconv.Atoi(args[1]); err == nil && n > 0 {
			workers = n
		}
	}
	if category == "" {
		category = fmt.Sprintf("stress-%d", time.Now().Unix())
	}

	fmt.Printf("=== Category Find-or-Create Concurrency Test ===\n")
	fmt.Printf("Server   : %s\n", serverAddr)
	fmt.Printf("Category : %s\n", category)
	fmt.Printf("Workers  : %d\n\n", workers)

	results := make([]createResult, workers)
	var wg sync.WaitGroup

	// Fire all goroutines simultaneously using a barrier.
	start := make(chan struct{})

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			<-start // wait for the barrier
			results[idx] = attemptCreate(serverAddr, token, category, idx)
		}(i)
	}

	fmt.Println("Firing all requests simultaneously...")
	close(start)

	wg.Wait()
	fmt.Println("All requests completed.")
	fmt.Println()

	// Tally results.
	var created, failures int
	for _, r := range results {
		switch {
		case r.Err != nil:
			failures++
			fmt.Printf("  [ERR ] worker=%-3d err=%v\n", r.Worker, r.Err)
		case r.StatusCode == http.StatusCreated:
			created++
			fmt.Printf("  [BOOK] worker=%-3d status=%d\n", r.Worker, r.StatusCode)
		default:
			failures++
			fmt.Printf("  [FAIL] worker=%-3d status=%d\n", r.Worker, r.StatusCode)
		}
	}

	fmt.Printf("\n--- Summary ---\n")
	fmt.Printf("Books created : %d\n", created)
	fmt.Printf("Failures      : %d\n", failures)
	fmt.Printf("Total         : %d\n\n", workers)

	// Verify invariant: the conflict-free insert on categories.name means
	// all workers converge on one row.
	fmt.Println("--- Invariant Check ---")
	rows, err := countCategoryRows(serverAddr, token, category)
	if err != nil {
		log.Fatalf("could not list categories: %v", err)
	}
	fmt.Printf("Category rows named %q: %d\n", category, rows)
	if rows != 1 {
		fmt.Printf("\n[WARNING] expected exactly 1 category row, found %d\n", rows)
		os.Exit(1)
	}
	fmt.Println("OK: every worker converged on a single category row.")

	if failures > 0 {
		fmt.Printf("\n[WARNING] %d request(s) failed — check server logs for details.\n", failures)
		os.Exit(1)
	}
}

// attemptCreate sends POST /api/books as a multipart form naming the
// contested category.
func attemptCreate(serverAddr, token, category string, worker int) createResult {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	form.WriteField("title", fmt.Sprintf("Stress Book %d", worker))
	form.WriteField("author", "Load Tester")
	form.WriteField("category", category)
	form.Close()

	req, err := http.NewRequest(http.MethodPost, serverAddr+"/api/books", &buf)
	if err != nil {
		return createResult{Worker: worker, Err: err}
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return createResult{Worker: worker, Err: err}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return createResult{Worker: worker, StatusCode: resp.StatusCode}
}

// countCategoryRows lists /api/categories and counts rows with the name.
func countCategoryRows(serverAddr, token, name string) (int, error) {
	req, err := http.NewRequest(http.MethodGet, serverAddr+"/api/categories", nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var parsed struct {
		Categories []struct {
			Name string `json:"name"`
		} `json:"categories"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return 0, fmt.Errorf("bad JSON: %s", raw)
	}

	count := 0
	for _, c := range parsed.Categories {
		if c.Name == name {
			count++
		}
	}
	return count, nil
}
