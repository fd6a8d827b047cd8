package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"sitfit-api/internal/domain/ports/adapter"
)

var _ adapter.SignatureVerifier = (*PaymentSigner)(nil)

// PaymentSigner checks checkout signatures:
// hex(HMAC_SHA256(secret, order_id + "|" + payment_id)).
type PaymentSigner struct {
	secret []byte
}

func NewPaymentSigner(secret string) (*PaymentSigner, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("payment signature secret is empty")
	}
	return &PaymentSigner{secret: []byte(secret)}, nil
}

// Sign returns the expected signature. Used by tests and the noop gateway.
func (s *PaymentSigner) Sign(orderID, paymentID string) string {
	return hex.EncodeToString(s.mac(orderID, paymentID))
}

// Verify compares in constant time. Malformed hex is a mismatch.
func (s *PaymentSigner) Verify(orderID, paymentID, signature string) bool {
	sig := strings.TrimSpace(signature)
	if orderID == "" || paymentID == "" || sig == "" {
		return false
	}
	decoded, err := hex.DecodeString(strings.ToLower(sig))
	if err != nil {
		return false
	}
	return hmac.Equal(s.mac(orderID, paymentID), decoded)
}

func (s *PaymentSigner) mac(orderID, paymentID string) []byte {
	m := hmac.New(sha256.New, s.secret)
	m.Write([]byte(orderID + "|" + paymentID))
	return m.Sum(nil)
}
