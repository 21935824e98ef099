// Package fairness implements the provably-fair prize wheel. An outcome
// is a pure function of (serverSeed, clientSeed, nonce), so any spin can
// be re-derived and audited after the seeds are disclosed.
package fairness

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// Segment is one slice of the wheel. Probability is in whole percent;
// the table must sum to 100. Label and Color are presentation hints for
// the frontend wheel config.
type Segment struct {
	Prize       int64  `json:"prize"`
	Probability int    `json:"probability"`
	Label       string `json:"label"`
	Color       string `json:"color"`
}

// Wheel is the fixed prize table. Order matters: cumulative probability
// bands are summed in table order when mapping a random number to a
// segment.
var Wheel = []Segment{
	{Prize: 10, Probability: 30, Label: "₦10", Color: "#FF6B6B"},
	{Prize: 20, Probability: 25, Label: "₦20", Color: "#4ECDC4"},
	{Prize: 50, Probability: 15, Label: "₦50", Color: "#45B7D1"},
	{Prize: 100, Probability: 10, Label: "₦100", Color: "#96CEB4"},
	{Prize: 200, Probability: 8, Label: "₦200", Color: "#FFEAA7"},
	{Prize: 500, Probability: 5, Label: "₦500", Color: "#DDA0DD"},
	{Prize: 1000, Probability: 4, Label: "₦1000", Color: "#F08080"},
	{Prize: 2000, Probability: 3, Label: "₦2000", Color: "#9ACD32"},
}

type Outcome struct {
	Prize        int64
	RandomNumber int
	Hash         string
}

// Draw computes the outcome for one spin. The three inputs are hashed as
// "server:client:nonce"; the first 4 bytes of the digest, taken as a
// big-endian integer mod 10000, select a segment by cumulative
// probability band. Total over its whole input domain: if rounding ever
// left the number unmatched the last segment applies.
func Draw(serverSeed, clientSeed string, nonce int64) Outcome {
	combined := fmt.Sprintf("%s:%s:%d", serverSeed, clientSeed, nonce)
	digest := sha256.Sum256([]byte(combined))
	n := int(binary.BigEndian.Uint32(digest[:4]) % 10000)

	out := Outcome{
		RandomNumber: n,
		Hash:         hex.EncodeToString(digest[:]),
	}

	cumulative := 0
	for _, seg := range Wheel {
		cumulative += seg.Probability * 100
		if n < cumulative {
			out.Prize = seg.Prize
			return out
		}
	}
	out.Prize = Wheel[len(Wheel)-1].Prize
	return out
}

// Verify re-runs Draw and checks the claimed prize. Audit only; payout
// already happened at draw time.
func Verify(serverSeed, clientSeed string, nonce, claimedPrize int64) bool {
	return Draw(serverSeed, clientSeed, nonce).Prize == claimedPrize
}
