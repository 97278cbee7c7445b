package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func sign(message, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyPaymentSignature(t *testing.T) {
	secret := "test_secret"
	sig := sign("order_abc|pay_xyz", secret)

	if !VerifyPaymentSignature("order_abc", "pay_xyz", sig, secret) {
		t.Fatal("valid signature rejected")
	}
	if VerifyPaymentSignature("order_abc", "pay_xyz", sig, "other_secret") {
		t.Fatal("signature accepted under wrong secret")
	}
	if VerifyPaymentSignature("order_other", "pay_xyz", sig, secret) {
		t.Fatal("signature accepted for a different gateway order")
	}
	if VerifyPaymentSignature("order_abc", "pay_other", sig, secret) {
		t.Fatal("signature accepted for a different payment id")
	}
}

func TestVerifyPaymentSignatureEmptyInputs(t *testing.T) {
	if VerifyPaymentSignature("", "pay_xyz", "sig", "s") {
		t.Fatal("accepted empty order id")
	}
	if VerifyPaymentSignature("order_abc", "", "sig", "s") {
		t.Fatal("accepted empty payment id")
	}
	if VerifyPaymentSignature("order_abc", "pay_xyz", "", "s") {
		t.Fatal("accepted empty signature")
	}
}

func TestVerifyWebhookSignature(t *testing.T) {
	secret := "whsec"
	body := []byte(`{"event":"payment.captured"}`)
	sig := sign(string(body), secret)

	if !VerifyWebhookSignature(body, sig, secret) {
		t.Fatal("valid webhook signature rejected")
	}
	if VerifyWebhookSignature([]byte(`{"event":"tampered"}`), sig, secret) {
		t.Fatal("tampered body accepted")
	}
	if VerifyWebhookSignature(nil, sig, secret) {
		t.Fatal("empty body accepted")
	}
}
