package utils

import (
	"encoding/json"
	"fmt"
	"log"

	"lms/config"

	"github.com/go-resty/resty/v2"
)

// PaymentStatus is the provider's view of one payment
type PaymentStatus struct {
	PaymentID string  `json:"payment_id"`
	Status    string  `json:"status"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
}

// VerifyPayment confirms a payment id with the payment provider before an
// enrollment is granted. Webhook payloads are not trusted on their own.
func VerifyPayment(paymentID string) (*PaymentStatus, error) {
	client := resty.New()

	url := fmt.Sprintf("%spayments/%s", config.AppConfig.PaymentApiURL, paymentID)
	resp, err := client.R().
		SetHeader("Authorization", "Bearer "+config.AppConfig.PaymentApiKey).
		Get(url)
	if err != nil {
		log.Printf("Failed to reach payment provider: %v", err)
		return nil, err
	}
	if resp.StatusCode() != 200 {
		log.Printf("Payment lookup failed for %s: %s", paymentID, resp.String())
		return nil, fmt.Errorf("payment lookup failed, code: %d", resp.StatusCode())
	}

	var status PaymentStatus
	if err := json.Unmarshal(resp.Body(), &status); err != nil {
		log.Printf("Failed to parse payment response: %v", err)
		return nil, err
	}

	if status.Status != "SUCCEEDED" {
		return nil, fmt.Errorf("payment %s not succeeded, status: %s", paymentID, status.Status)
	}

	return &status, nil
}
