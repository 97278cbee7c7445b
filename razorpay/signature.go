package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// VerifyPaymentSignature checks the checkout-callback signature: an
// HMAC-SHA256 of "gatewayOrderID|gatewayPaymentID" keyed by the key
// secret. Constant-time compare.
func VerifyPaymentSignature(gatewayOrderID, gatewayPaymentID, signature, secret string) bool {
	if gatewayOrderID == "" || gatewayPaymentID == "" || signature == "" {
		return false
	}
	return hmacMatches([]byte(gatewayOrderID+"|"+gatewayPaymentID), signature, secret)
}

// VerifyWebhookSignature checks the X-Razorpay-Signature header against
// the raw webhook body, keyed by the webhook secret.
func VerifyWebhookSignature(body []byte, signature, webhookSecret string) bool {
	if len(body) == 0 || signature == "" {
		return false
	}
	return hmacMatches(body, signature, webhookSecret)
}

func hmacMatches(message []byte, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(message)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
