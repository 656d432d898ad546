// Package main runs a demo WebSocket client for simulation events.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)

	// Connect WS first so we see the completion event
	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/simulations/stream"}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var m map[string]any
			if err := c.ReadJSON(&m); err != nil {
				log.Printf("read: %v", err)
				return
			}
			raw, _ := json.Marshal(m)
			log.Printf("WS <- %s", raw)
		}
	}()

	// Trigger a simulation run
	time.Sleep(500 * time.Millisecond)
	body := []byte(`{"numDrivers":2,"startTime":"09:00","maxHoursPerDriver":8}`)
	req, _ := http.NewRequest(http.MethodPost, base+"/v1/simulations", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatal(err)
	}
	_ = resp.Body.Close()
	log.Printf("POST /v1/simulations -> %d", resp.StatusCode)

	// Wait briefly to receive a few messages
	select {
	case <-time.After(2 * time.Second):
	case <-done:
	}
}
