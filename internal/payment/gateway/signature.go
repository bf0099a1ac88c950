package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// CallbackSignature computes the checkout callback signature:
// hex(HMAC-SHA256(secret, orderID + "|" + paymentID)).
func CallbackSignature(secret, orderID, paymentID string) string {
	return sign(secret, []byte(orderID+"|"+paymentID))
}

// VerifyCallbackSignature checks a checkout callback in constant time. Empty
// inputs never verify and the signature is not normalized.
func VerifyCallbackSignature(secret, orderID, paymentID, signature string) bool {
	if secret == "" || orderID == "" || paymentID == "" || signature == "" {
		return false
	}
	return equal(CallbackSignature(secret, orderID, paymentID), signature)
}

// WebhookSignature computes hex(HMAC-SHA256(secret, body)).
func WebhookSignature(secret string, body []byte) string {
	return sign(secret, body)
}

// VerifyWebhookSignature checks the X-Razorpay-Signature header against the
// raw request body.
func VerifyWebhookSignature(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	return equal(WebhookSignature(secret, body), signature)
}

func sign(secret string, msg []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(msg)
	return hex.EncodeToString(mac.Sum(nil))
}

// equal compares the supplied signature byte for byte with the lowercase hex
// Razorpay produces.
func equal(expected, got string) bool {
	return hmac.Equal([]byte(expected), []byte(got))
}
