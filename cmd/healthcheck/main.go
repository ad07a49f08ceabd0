// Command healthcheck is the container health probe for starneighbours.
// It exits 0 only when the health endpoint answers 200 with status "ok".
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"
)

const timeout = 2 * time.Second

func main() {
	url := healthURL(os.Getenv("STARNEIGHBOURS_LISTEN_ADDR"))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := probe(ctx, &http.Client{Timeout: timeout}, url); err != nil {
		fmt.Fprintln(os.Stderr, "healthcheck:", err)
		os.Exit(1)
	}
}

type healthBody struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// probe reports whether the server at url considers itself healthy. A 503
// from an unreachable token database comes back with the server's reason.
func probe(ctx context.Context, client *http.Client, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	var body healthBody
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<10)).Decode(&body); err != nil {
		return fmt.Errorf("GET %s: status %d, unreadable body: %w", url, resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d: %s", url, resp.StatusCode, body.Error)
	}
	if body.Status != "ok" {
		return fmt.Errorf("GET %s: reported status %q", url, body.Status)
	}
	return nil
}

// healthURL builds the health endpoint URL for the server's listen address.
// A wildcard bind is reached over loopback since the probe shares the container.
func healthURL(listenAddr string) string {
	const fallback = "127.0.0.1:8080"

	addr := fallback
	if host, port, err := net.SplitHostPort(listenAddr); err == nil {
		switch host {
		case "", "0.0.0.0", "::":
			host = "127.0.0.1"
		}
		addr = net.JoinHostPort(host, port)
	}

	return "http://" + addr + "/api/v1/health"
}
