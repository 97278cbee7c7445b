package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
)

// Client wraps the Razorpay orders API. Network failures are retried
// with backoff here and nowhere else; signature rejections are never
// retried.
type Client struct {
	KeyID      string
	KeySecret  string
	BaseURL    string
	HTTPClient *http.Client
	MaxRetries int
}

// OrderResponse is the subset of the gateway order we keep.
type OrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

func NewClient() *Client {
	return &Client{
		KeyID:      os.Getenv("RAZORPAY_KEY_ID"),
		KeySecret:  os.Getenv("RAZORPAY_KEY_SECRET"),
		BaseURL:    "https://api.razorpay.com/v1",
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		MaxRetries: 3,
	}
}

// CreateOrder creates a gateway-side order for amount (paise). The
// receipt id is generated here so retries of the same call stay
// distinguishable in the gateway dashboard.
func (c *Client) CreateOrder(ctx context.Context, amount int64, currency, localOrderID string) (*OrderResponse, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("razorpay: non-positive amount %d", amount)
	}
	if currency == "" {
		currency = "INR"
	}

	payload, err := json.Marshal(map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"receipt":  "rcpt_" + uuid.NewString(),
		"notes":    map[string]string{"order_id": localOrderID},
	})
	if err != nil {
		return nil, err
	}

	var lastErr error
	backoff := 200 * time.Millisecond
	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		out, retryable, err := c.createOnce(ctx, payload)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !retryable {
			break
		}
		log.Printf("razorpay: create order attempt %d failed: %v", attempt+1, err)
	}
	return nil, lastErr
}

func (c *Client) createOnce(ctx context.Context, payload []byte) (*OrderResponse, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, false, err
	}
	req.SetBasicAuth(c.KeyID, c.KeySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		// network-level failure
		return nil, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, true, fmt.Errorf("razorpay: gateway returned %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error struct {
				Description string `json:"description"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return nil, false, fmt.Errorf("razorpay: create order rejected (%d): %s", resp.StatusCode, apiErr.Error.Description)
	}

	var out OrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, false, err
	}
	return &out, false, nil
}
