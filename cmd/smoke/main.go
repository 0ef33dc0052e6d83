package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

// 1x1 transparent PNG
const pixelPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

func main() {
	baseURL := flag.String("url", envOr("SMOKE_BASE_URL", "http://localhost:8080"), "base URL of a running server")
	flag.Parse()

	client := &http.Client{Timeout: 2 * time.Minute}

	// 1. Wait for the server
	waitHealthy(client, *baseURL+"/health")

	// 2. Validation is enforced before the provider is called
	status, body := post(client, *baseURL+"/api/generateImage", map[string]any{"prompt": "describe"})
	if status != http.StatusBadRequest {
		log.Fatalf("Expected 400 for missing imageParts, got %d. Body: %s", status, body)
	}
	log.Printf("validation ok: %s", body)

	// 3. Text generation
	status, body = post(client, *baseURL+"/api/generateContent", map[string]any{
		"prompt": "Reply with the single word: pong",
	})
	requireText(status, body, "generateContent")

	// 4. Image generation with a single inline part
	status, body = post(client, *baseURL+"/api/generateImage", map[string]any{
		"prompt": "What color is this image?",
		"imageParts": map[string]any{
			"inlineData": map[string]string{"mimeType": "image/png", "data": pixelPNG},
		},
	})
	requireText(status, body, "generateImage")

	log.Println("SUCCESS: both generation endpoints answered")
}

func waitHealthy(client *http.Client, url string) {
	var err error
	for i := 0; i < 10; i++ {
		var resp *http.Response
		resp, err = client.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		log.Printf("Waiting for server... %v", err)
		time.Sleep(1 * time.Second)
	}
	log.Fatalf("Server not healthy after retries: %v", err)
}

func post(client *http.Client, url string, payload any) (int, string) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		log.Fatalf("marshal payload: %v", err)
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		log.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("Request to %s failed: %v", url, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(raw)
}

func requireText(status int, body, endpoint string) {
	if status != http.StatusOK {
		log.Fatalf("%s: expected 200 OK, got %d. Body: %s", endpoint, status, body)
	}
	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(body), &result); err != nil || result.Text == "" {
		log.Fatalf("%s: response has no text: %s", endpoint, body)
	}
	log.Printf("%s ok: %q", endpoint, result.Text)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
