package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

const baseURL = "http://localhost:8080"

var token string

func main() {
	// Wait for server to start
	time.Sleep(2 * time.Second)

	// 1. Health Check
	checkEndpoint("GET", "/health", nil, 200)

	// 2. Register + Login
	username := fmt.Sprintf("e2e-user-%d", time.Now().UnixNano())
	password := "E2ePassw0rd"
	checkEndpoint("POST", "/register", map[string]interface{}{
		"username":     username,
		"password":     password,
		"confirmation": password,
	}, 201)
	token = login(username, password)

	// 3. Quote
	checkEndpoint("GET", "/quote/AAPL", nil, 200)

	// 4. Buy, then inspect portfolio and history
	checkEndpoint("POST", "/buy", map[string]interface{}{"symbol": "AAPL", "shares": 2}, 200)
	checkEndpoint("GET", "/portfolio", nil, 200)
	checkEndpoint("GET", "/history", nil, 200)

	// 5. Sell everything back
	checkEndpoint("POST", "/sell", map[string]interface{}{"symbol": "AAPL", "shares": 2}, 200)

	// 6. Overselling must be rejected
	checkEndpoint("POST", "/sell", map[string]interface{}{"symbol": "AAPL", "shares": 1}, 409)

	// 7. Deposit with a valid AMEX test number
	checkEndpoint("POST", "/deposit", map[string]interface{}{
		"amount":      "500.00",
		"card_number": "378282246310005",
		"password":    password,
	}, 200)

	fmt.Println("ALL TESTS PASSED")
}

func login(username, password string) string {
	fmt.Println("Logging in...")
	reqBody := map[string]string{"username": username, "password": password}
	jsonBody, _ := json.Marshal(reqBody)
	resp, err := http.Post(baseURL+"/login", "application/json", bytes.NewBuffer(jsonBody))
	if err != nil {
		log.Fatalf("Login failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		body, _ := io.ReadAll(resp.Body)
		log.Fatalf("Login failed with status %d: %s", resp.StatusCode, string(body))
	}

	var res map[string]string
	json.NewDecoder(resp.Body).Decode(&res)
	return res["token"]
}

func checkEndpoint(method, path string, body interface{}, expectedStatus int) {
	fmt.Printf("Testing %s %s...\n", method, path)
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, _ := http.NewRequest(method, baseURL+path, bodyReader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != expectedStatus {
		log.Fatalf("Expected status %d, got %d. Body: %s", expectedStatus, resp.StatusCode, string(respBody))
	}
	fmt.Printf("Response: %s\n", string(respBody))
}
