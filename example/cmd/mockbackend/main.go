// Standalone mock backend for trying the CLI.
//
// POST /submit accepts a multipart form, answers with a status message and
// starts a new job. GET /results returns the job's cumulative results list,
// which grows by one entry every second or two.
//
// Usage:
//
//	go run ./example/cmd/mockbackend
//
// Then in another terminal:
//
//	go run ./cmd/resultwatch serve -c example/config.yaml
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

// job tracks the inputs of the current submission and how far it got.
type job struct {
	inputs       []string
	results      []string
	nextResultAt time.Time
}

func main() {
	fmt.Println("Mock backend starting on :5000")
	fmt.Println("Results grow by one entry every 1-2 seconds after a submit")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	var (
		current  *job
		mu       sync.Mutex
		verdicts = []string{"alive", "slow", "dead"}
	)

	mux := http.NewServeMux()

	mux.HandleFunc("POST /submit", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		var inputs []string
		for _, values := range r.MultipartForm.Value {
			for _, v := range values {
				inputs = append(inputs, splitLines(v)...)
			}
		}
		for _, headers := range r.MultipartForm.File {
			for _, fh := range headers {
				f, err := fh.Open()
				if err != nil {
					continue
				}
				data, err := io.ReadAll(f)
				_ = f.Close()
				if err != nil {
					continue
				}
				inputs = append(inputs, splitLines(string(data))...)
			}
		}

		mu.Lock()
		current = &job{inputs: inputs, nextResultAt: time.Now()}
		mu.Unlock()

		slog.Info("submission received", "inputs", len(inputs), "id", r.Header.Get("X-Submission-ID"))
		writeJSON(w, map[string]string{
			"message": fmt.Sprintf("Checking %d entries...", len(inputs)),
		})
	})

	mux.HandleFunc("GET /results", func(w http.ResponseWriter, r *http.Request) {
		// simulate small latency variance
		time.Sleep(time.Duration(50+rand.Intn(150)) * time.Millisecond)

		mu.Lock()
		results := []string{}
		if current != nil {
			if len(current.results) < len(current.inputs) && time.Now().After(current.nextResultAt) {
				in := current.inputs[len(current.results)]
				current.results = append(current.results, in+" "+verdicts[rand.Intn(len(verdicts))])
				current.nextResultAt = time.Now().Add(time.Duration(1000+rand.Intn(1000)) * time.Millisecond)
			}
			results = append(results, current.results...)
		}
		mu.Unlock()

		writeJSON(w, map[string][]string{"results": results})
	})

	if err := http.ListenAndServe(":5000", mux); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}
