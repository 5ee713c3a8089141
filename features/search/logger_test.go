package search

import (
	"bytes"
	"encoding/json"
	"sync"
	"testing"
	"time"
)

func TestQueryLogger_ThreadSafety(t *testing.T) {
	var buf bytes.Buffer
	logger := NewQueryLogger(&buf)

	concurrency := 50
	iterations := 100
	var wg sync.WaitGroup

	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				logger.Log(QueryLogEntry{
					Query:    "test",
					Mode:     "semantic",
					Duration: time.Millisecond,
				})
			}
		}()
	}
	wg.Wait()

	// Verify output is a valid JSON stream
	decoder := json.NewDecoder(&buf)
	count := 0
	for decoder.More() {
		var entry QueryLogEntry
		err := decoder.Decode(&entry)
		if err != nil {
			t.Fatalf("Failed to decode entry %d: %v", count, err)
		}
		count++
	}

	expected := concurrency * iterations
	if count != expected {
		t.Errorf("Expected %d entries, got %d", expected, count)
	}
}

func TestQueryLogger_PopulatesDerivedFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewQueryLogger(&buf)

	logger.Log(QueryLogEntry{Query: "q", Mode: "keyword", NumResults: 2, Duration: 1500 * time.Millisecond})

	var entry QueryLogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to decode entry: %v", err)
	}
	if entry.LatencyMs != 1500 {
		t.Errorf("Expected latency 1500ms, got %d", entry.LatencyMs)
	}
	if entry.Timestamp.IsZero() {
		t.Error("Timestamp not set")
	}
}
