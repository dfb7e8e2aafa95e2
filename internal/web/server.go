// Package web exposes the receiver state over HTTP: a JSON status
// endpoint for polling and a websocket stream for live position updates.
package web

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"gpsfeed/internal/feed"
	"gpsfeed/internal/pps"
)

// statusResponse aggregates everything a client needs in one poll.
type statusResponse struct {
	Feed     feed.Snapshot        `json:"feed"`
	Position feed.TrackerSnapshot `json:"position"`
	PPS      *pps.Snapshot        `json:"pps,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The UI is served from the same appliance; skip origin checks.
	CheckOrigin: func(*http.Request) bool { return true },
}

// LiveInterval is how often /api/live pushes a snapshot to each client.
const LiveInterval = time.Second

func Handler(svc *feed.Service, tracker *feed.Tracker, ppsMon *pps.Monitor) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		resp := statusResponse{
			Feed:     svc.Snapshot(),
			Position: tracker.Snapshot(),
		}
		if ppsMon != nil {
			s := ppsMon.Snapshot()
			resp.PPS = &s
		}
		b, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			http.Error(w, "marshal failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(b)
		_, _ = w.Write([]byte("\n"))
	})

	mux.HandleFunc("/api/live", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote an HTTP error to the client.
			return
		}
		go serveLive(conn, tracker)
	})

	return mux
}

// serveLive pushes the current tracker snapshot immediately, then on a
// fixed interval until the client goes away.
func serveLive(conn *websocket.Conn, tracker *feed.Tracker) {
	defer func() { _ = conn.Close() }()

	// Drain client frames so pings and close messages are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(LiveInterval)
	defer ticker.Stop()

	for {
		if err := conn.WriteJSON(tracker.Snapshot()); err != nil {
			return
		}
		select {
		case <-done:
			return
		case <-ticker.C:
		}
	}
}

func Serve(ctx context.Context, listenAddr string, svc *feed.Service, tracker *feed.Tracker, ppsMon *pps.Monitor) error {
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           Handler(svc, tracker, ppsMon),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       30 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MiB
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	log.Printf("web listening on %s", listenAddr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
