package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Drives a running server through the cart merge path: many concurrent
// adds of the same product must end up as one line item whose quantity
// is the number of successful adds.

const (
	totalAdds   = 50
	addQuantity = 1
)

func main() {
	baseURL := getenv("BASE_URL", "http://localhost:8080")
	secret := getenv("JWT_SECRET", "dev-secret")

	httpClient := &http.Client{Timeout: 10 * time.Second}

	// Fresh user per run so the cart starts empty.
	email := fmt.Sprintf("loadgen-%d@example.com", time.Now().UnixNano())
	// Seller account: product creation is role-gated.
	user := post(httpClient, baseURL+"/api/users", "", map[string]any{
		"username": "loadgen",
		"email":    email,
		"userType": "Seller",
	})
	userID, _ := user["userId"].(string)
	if userID == "" {
		log.Fatalf("user creation failed: %v", user)
	}

	token := signToken(secret, userID)

	product := post(httpClient, baseURL+"/api/products", token, map[string]any{
		"productName": "loadgen-widget",
		"description": "synthetic",
		"price":       9.99,
		"category":    "test",
	})
	productID, _ := product["productId"].(string)
	if productID == "" {
		log.Fatalf("product creation failed: %v", product)
	}

	var successCount atomic.Int32
	var failCount atomic.Int32
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalAdds; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := post(httpClient, baseURL+"/api/cart", token, map[string]any{
				"productId": productID,
				"quantity":  addQuantity,
			})
			if _, ok := resp["cartId"]; ok {
				successCount.Add(1)
			} else {
				failCount.Add(1)
			}
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	cart := get(httpClient, baseURL+"/api/cart/user/"+userID, token)
	items, _ := cart["items"].([]any)

	fmt.Println("========== LOADGEN RESULTS ==========")
	fmt.Printf("Concurrent Adds:  %d\n", totalAdds)
	fmt.Printf("Successful:       %d\n", successCount.Load())
	fmt.Printf("Failed:           %d\n", failCount.Load())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Printf("Cart Lines:       %d\n", len(items))
	fmt.Println("=====================================")

	if len(items) != 1 {
		fmt.Printf("FAIL: expected 1 merged line item, got %d\n", len(items))
		os.Exit(1)
	}
	line, _ := items[0].(map[string]any)
	quantity, _ := line["quantity"].(float64)
	if int(quantity) != int(successCount.Load())*addQuantity {
		fmt.Printf("FAIL: expected quantity %d, got %d\n",
			int(successCount.Load())*addQuantity, int(quantity))
		os.Exit(1)
	}
	fmt.Printf("PASS: %d adds merged into one line of quantity %d\n",
		successCount.Load(), int(quantity))
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func signToken(secret, userID string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": userID,
		"exp":    time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		log.Fatalf("sign token: %v", err)
	}
	return signed
}

func post(client *http.Client, url, token string, payload map[string]any) map[string]any {
	body, _ := json.Marshal(payload)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		log.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return do(client, req)
}

func get(client *http.Client, url, token string) map[string]any {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		log.Fatalf("build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return do(client, req)
}

func do(client *http.Client, req *http.Request) map[string]any {
	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", req.Method, req.URL, err)
	}
	defer resp.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		log.Fatalf("%s %s: decode: %v", req.Method, req.URL, err)
	}
	return out
}
