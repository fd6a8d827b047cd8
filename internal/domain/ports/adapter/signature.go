package adapter

// SignatureVerifier checks the signature a client receives from checkout.
type SignatureVerifier interface {
	Verify(orderID, paymentID, signature string) bool
}
