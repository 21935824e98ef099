package fairness

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// NewServerSeed returns 256 bits of fresh entropy, hex encoded. Held
// server-side until the spin is disclosed for verification.
func NewServerSeed() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("fairness: read entropy: %v", err))
	}
	return hex.EncodeToString(b)
}

// NewClientSeed derives a non-secret seed from the account, the current
// time and fresh entropy, so neither side can choose it alone.
func NewClientSeed(accountID string) string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("fairness: read entropy: %v", err))
	}
	raw := fmt.Sprintf("%s:%s:%s", accountID, time.Now().UTC().Format(time.RFC3339Nano), hex.EncodeToString(b))
	digest := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(digest[:])
}
