package models

import (
	"strings"
	"time"
)

// Member is a participant in the membership program, keyed by wallet
// address. current_level only moves upward; activation_sequence is the
// global order in which members first activated.
// Maps to: members table
type Member struct {
	WalletAddress      string     `db:"wallet_address" json:"wallet_address"`
	CurrentLevel       int        `db:"current_level" json:"current_level"`
	ActivationSequence *int64     `db:"activation_sequence" json:"activation_sequence,omitempty"`
	ActivationTime     *time.Time `db:"activation_time" json:"activation_time,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// NormalizeWallet lowercases a wallet address. Wallets are
// case-insensitive keys; every entry point normalizes before touching
// the store.
func NormalizeWallet(wallet string) string {
	return strings.ToLower(strings.TrimSpace(wallet))
}
