package ledger

import (
	"encoding/json"
	"time"
)

// Transaction metadata is a typed union per kind: stakes and wins carry
// none, withdrawals carry bank details and a processing estimate, spins
// carry their fairness inputs, admin adjustments carry the audit trail.
// The store serializes whichever struct it is handed to JSONB.

type BankDetails struct {
	BankCode      string `json:"bank_code"`
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
}

type WithdrawMeta struct {
	Bank                BankDetails `json:"bank"`
	ProcessingDays      int         `json:"processing_days"`
	EstimatedCompletion time.Time   `json:"estimated_completion"`
}

type SpinMeta struct {
	SpinID       string `json:"spin_id"`
	ServerSeed   string `json:"server_seed"`
	ClientSeed   string `json:"client_seed"`
	Nonce        int64  `json:"nonce"`
	RandomNumber int    `json:"random_number"`
}

type AdjustmentMeta struct {
	Action  string `json:"action"`
	Reason  string `json:"reason"`
	AdminID string `json:"admin_id,omitempty"`
}

func DecodeWithdrawMeta(raw json.RawMessage) (WithdrawMeta, error) {
	var m WithdrawMeta
	err := json.Unmarshal(raw, &m)
	return m, err
}

func DecodeSpinMeta(raw json.RawMessage) (SpinMeta, error) {
	var m SpinMeta
	err := json.Unmarshal(raw, &m)
	return m, err
}
