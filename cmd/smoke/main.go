// Smoke test client for a running Travel Bot server. It walks the API
// end to end: health, a greeting turn, a full travel request, session
// inspection and deletion. Run it against a live server:
//
//	go run ./cmd/smoke -base http://localhost:8000
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const sessionID = "smoke_session_123"

var baseURL = flag.String("base", "http://localhost:8000", "base URL of the running server")

func main() {
	flag.Parse()

	client := &http.Client{Timeout: 2 * time.Minute}
	failures := 0

	steps := []struct {
		name string
		run  func(*http.Client) error
	}{
		{"health", checkHealth},
		{"root", checkRoot},
		{"chat: greeting", chatStep("Hello")},
		{"chat: travel request", chatStep("I want to plan a 3-day trip to Paris starting from New York on 2024-12-01")},
		{"get session", checkGetSession},
		{"empty message rejected", checkEmptyMessage},
		{"delete session", checkDeleteSession},
		{"missing session", checkMissingSession},
	}

	for _, step := range steps {
		fmt.Printf("\n=== %s ===\n", step.name)
		if err := step.run(client); err != nil {
			fmt.Printf("FAIL: %v\n", err)
			failures++
			continue
		}
		fmt.Println("ok")
	}

	if failures > 0 {
		fmt.Printf("\n%d step(s) failed\n", failures)
		os.Exit(1)
	}
	fmt.Println("\nall steps passed")
}

func checkHealth(c *http.Client) error {
	return getJSON(c, "/health", http.StatusOK)
}

func checkRoot(c *http.Client) error {
	return getJSON(c, "/", http.StatusOK)
}

// chatStep posts a message and prints every SSE event in the reply.
func chatStep(message string) func(*http.Client) error {
	return func(c *http.Client) error {
		body, _ := json.Marshal(map[string]string{"message": message})
		resp, err := c.Post(*baseURL+"/chat/"+sessionID, "application/json", bytes.NewReader(body))
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("status %d", resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
			return fmt.Errorf("unexpected content type %q", ct)
		}

		events := 0
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			events++
			var ev map[string]any
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
				return fmt.Errorf("bad event payload: %w", err)
			}
			fmt.Printf("  event %d: type=%v\n", events, ev["type"])
			if content, ok := ev["content"].(string); ok && content != "" {
				fmt.Printf("    %s\n", indent(content))
			}
		}
		if err := scanner.Err(); err != nil {
			return err
		}
		if events == 0 {
			return fmt.Errorf("no events received")
		}
		return nil
	}
}

func checkGetSession(c *http.Client) error {
	return getJSON(c, "/session/"+sessionID, http.StatusOK)
}

func checkEmptyMessage(c *http.Client) error {
	body := strings.NewReader(`{"message": ""}`)
	resp, err := c.Post(*baseURL+"/chat/"+sessionID, "application/json", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		return fmt.Errorf("status %d, want 400", resp.StatusCode)
	}
	return printBody(resp.Body)
}

func checkDeleteSession(c *http.Client) error {
	req, err := http.NewRequest(http.MethodDelete, *baseURL+"/session/"+sessionID, nil)
	if err != nil {
		return err
	}
	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return printBody(resp.Body)
}

func checkMissingSession(c *http.Client) error {
	return getJSON(c, "/session/does_not_exist", http.StatusNotFound)
}

func getJSON(c *http.Client, path string, wantStatus int) error {
	resp, err := c.Get(*baseURL + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		return fmt.Errorf("GET %s: status %d, want %d", path, resp.StatusCode, wantStatus)
	}
	return printBody(resp.Body)
}

func printBody(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	fmt.Printf("  %s\n", strings.TrimSpace(string(data)))
	return nil
}

func indent(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "\n", "\n    ")
}
