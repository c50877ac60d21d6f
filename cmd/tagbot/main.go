// Package main - tagbot
// Load generator: spawns players over websockets that keep tagging and
// untagging creatures, then reports throughput and the feedback received.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MRamiBalles/babyturt/internal/domain/entity"
	"github.com/MRamiBalles/babyturt/internal/domain/item"
	"github.com/MRamiBalles/babyturt/internal/network"
)

// Config for the bot run
type Config struct {
	ServerURL      string
	APIURL         string
	NumClients     int
	ActionInterval time.Duration
	TestDuration   time.Duration
	Output         string
}

// Stats tracks performance metrics
type Stats struct {
	MessagesSent     int64
	MessagesReceived int64
	Sounds           int64
	Errors           int64
	Latencies        []time.Duration
	mu               sync.Mutex
}

func main() {
	serverURL := flag.String("url", "ws://localhost:8080/ws", "WebSocket server URL")
	apiURL := flag.String("api", "http://localhost:8080", "HTTP API base URL")
	numClients := flag.Int("clients", 20, "Number of concurrent players")
	interval := flag.Duration("interval", 100*time.Millisecond, "Action interval per player")
	duration := flag.Duration("duration", 30*time.Second, "Test duration")
	output := flag.String("out", "tagbot_results.json", "Results file, empty to skip")
	flag.Parse()

	config := Config{
		ServerURL:      *serverURL,
		APIURL:         strings.TrimRight(*apiURL, "/"),
		NumClients:     *numClients,
		ActionInterval: *interval,
		TestDuration:   *duration,
		Output:         *output,
	}

	fmt.Println("=========================================")
	fmt.Println("TAGBOT - BabyTurt load generator")
	fmt.Println("=========================================")
	fmt.Printf("Server: %s\n", config.ServerURL)
	fmt.Printf("Clients: %d\n", config.NumClients)
	fmt.Printf("Interval: %v\n", config.ActionInterval)
	fmt.Printf("Duration: %v\n", config.TestDuration)
	fmt.Println("=========================================")

	ctx, cancel := context.WithTimeout(context.Background(), config.TestDuration)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		fmt.Println("\nInterrupt received, stopping...")
		cancel()
	}()

	stats := runLoad(ctx, config)
	printResults(stats, config)
}

func runLoad(ctx context.Context, config Config) *Stats {
	stats := &Stats{
		Latencies: make([]time.Duration, 0, 10000),
	}

	var wg sync.WaitGroup
	fmt.Println("\nStarting clients...")

	for i := 0; i < config.NumClients; i++ {
		wg.Add(1)
		go func(clientID int) {
			defer wg.Done()
			runClient(ctx, clientID, config, stats)
		}(i)

		// Stagger client starts to avoid thundering herd
		time.Sleep(10 * time.Millisecond)
	}

	fmt.Printf("All %d clients started\n\n", config.NumClients)

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sent := atomic.LoadInt64(&stats.MessagesSent)
				recv := atomic.LoadInt64(&stats.MessagesReceived)
				errs := atomic.LoadInt64(&stats.Errors)
				fmt.Printf("Progress: Sent=%d Recv=%d Errors=%d\n", sent, recv, errs)
			}
		}
	}()

	wg.Wait()
	return stats
}

// spawnTarget asks the server for a baby creature in front of the player.
func spawnTarget(ctx context.Context, apiURL string, at entity.Vec3) (entity.ID, error) {
	body, _ := json.Marshal(network.SpawnRequest{TypeID: entity.TypeTurtle, Location: at, Baby: true})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+"/api/entities", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("spawn: status %d", resp.StatusCode)
	}
	var out struct {
		ID entity.ID `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func runClient(ctx context.Context, clientID int, config Config, stats *Stats) {
	playerID := fmt.Sprintf("BOT_%03d", clientID)
	// Every bot gets its own lane so aim untags never cross.
	eye := entity.Vec3{X: 0.5, Y: 1.5, Z: float64(clientID*4) + 0.5}
	targetAt := entity.Vec3{X: 2.5, Y: 1, Z: eye.Z}

	target, err := spawnTarget(ctx, config.APIURL, targetAt)
	if err != nil {
		log.Printf("Client %d: spawn failed: %v", clientID, err)
		atomic.AddInt64(&stats.Errors, 1)
		return
	}

	u, err := url.Parse(config.ServerURL)
	if err != nil {
		log.Printf("Client %d: URL parse error: %v", clientID, err)
		atomic.AddInt64(&stats.Errors, 1)
		return
	}
	q := u.Query()
	q.Set("player_id", playerID)
	q.Set("name", playerID)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		log.Printf("Client %d: Connection failed: %v", clientID, err)
		atomic.AddInt64(&stats.Errors, 1)
		return
	}
	defer conn.Close()

	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			for _, line := range bytes.Split(data, []byte{'\n'}) {
				atomic.AddInt64(&stats.MessagesReceived, 1)
				var msg network.ServerMessage
				if json.Unmarshal(line, &msg) == nil && msg.Type == network.MsgTypeSound {
					atomic.AddInt64(&stats.Sounds, 1)
				}
			}
		}
	}()

	send := func(actionType string, payload interface{}) bool {
		raw, _ := json.Marshal(payload)
		start := time.Now()
		if err := conn.WriteJSON(network.PlayerAction{Type: actionType, Payload: raw}); err != nil {
			atomic.AddInt64(&stats.Errors, 1)
			return false
		}
		atomic.AddInt64(&stats.MessagesSent, 1)
		stats.mu.Lock()
		stats.Latencies = append(stats.Latencies, time.Since(start))
		stats.mu.Unlock()
		return true
	}

	if !send(network.ActionSpawn, network.SpawnPayload{GameMode: "creative", Location: eye, View: entity.Vec3{X: 1}}) {
		return
	}

	ticker := time.NewTicker(config.ActionInterval)
	defer ticker.Stop()

	for step := 0; ; step++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var ok bool
			switch step % 4 {
			case 0:
				ok = send(network.ActionHold, network.HoldPayload{Item: &item.Stack{TypeID: item.TypeNameTag, Amount: 1, NameTag: playerID}})
			case 1:
				ok = send(network.ActionInteract, network.InteractPayload{TargetID: target})
			case 2:
				ok = send(network.ActionHold, network.HoldPayload{Item: &item.Stack{TypeID: item.TypeNameTag, Amount: 1}})
			case 3:
				// Alternate between the interaction toggle and the aim untag.
				if rand.Intn(2) == 0 {
					ok = send(network.ActionInteract, network.InteractPayload{TargetID: target})
				} else {
					ok = send(network.ActionUseItem, struct{}{})
				}
			}
			if !ok {
				return
			}
		}
	}
}

func printResults(stats *Stats, config Config) {
	fmt.Println("\n=========================================")
	fmt.Println("TAGBOT RESULTS")
	fmt.Println("=========================================")

	sent := atomic.LoadInt64(&stats.MessagesSent)
	recv := atomic.LoadInt64(&stats.MessagesReceived)
	sounds := atomic.LoadInt64(&stats.Sounds)
	errs := atomic.LoadInt64(&stats.Errors)

	fmt.Printf("Messages Sent:     %d\n", sent)
	fmt.Printf("Messages Received: %d\n", recv)
	fmt.Printf("Feedback Sounds:   %d\n", sounds)
	fmt.Printf("Errors:            %d\n", errs)
	fmt.Printf("Error Rate:        %.2f%%\n", float64(errs)/float64(sent+1)*100)

	throughput := float64(sent) / config.TestDuration.Seconds()
	fmt.Printf("Throughput:        %.2f msg/sec\n", throughput)

	stats.mu.Lock()
	latencies := stats.Latencies
	stats.mu.Unlock()
	if len(latencies) > 0 {
		var total time.Duration
		lo, hi := latencies[0], latencies[0]
		for _, l := range latencies {
			total += l
			if l < lo {
				lo = l
			}
			if l > hi {
				hi = l
			}
		}
		avg := total / time.Duration(len(latencies))

		fmt.Printf("\nWrite latency:\n")
		fmt.Printf("  Min: %v\n", lo)
		fmt.Printf("  Avg: %v\n", avg)
		fmt.Printf("  Max: %v\n", hi)
	}

	fmt.Println("\n-----------------------------------------")
	switch {
	case errs == 0 && sounds > 0:
		fmt.Println("PASSED: tags toggled and feedback came back")
	case float64(errs)/float64(sent+1) < 0.05:
		fmt.Println("WARNING: some errors detected")
	default:
		fmt.Println("FAILED: high error rate")
	}
	fmt.Println("=========================================")

	if config.Output == "" {
		return
	}
	results := map[string]interface{}{
		"messages_sent":      sent,
		"messages_received":  recv,
		"feedback_sounds":    sounds,
		"errors":             errs,
		"throughput_per_sec": throughput,
		"config": map[string]interface{}{
			"clients":  config.NumClients,
			"interval": config.ActionInterval.String(),
			"duration": config.TestDuration.String(),
		},
	}
	jsonData, _ := json.MarshalIndent(results, "", "  ")
	if err := os.WriteFile(config.Output, jsonData, 0o644); err != nil {
		fmt.Printf("\nFailed to write %s: %v\n", config.Output, err)
		return
	}
	fmt.Printf("\nResults saved to %s\n", config.Output)
}
