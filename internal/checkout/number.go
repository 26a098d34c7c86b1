package checkout

import (
	"crypto/rand"
	"math/big"
)

const (
	orderNumberPrefix   = "ORD-"
	orderNumberLength   = 10
	orderNumberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	orderNumberAttempts = 5
)

// NewOrderNumber returns ORD- followed by ten random upper-case alphanumerics.
func NewOrderNumber() (string, error) {
	buf := make([]byte, orderNumberLength)
	max := big.NewInt(int64(len(orderNumberAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = orderNumberAlphabet[n.Int64()]
	}
	return orderNumberPrefix + string(buf), nil
}
