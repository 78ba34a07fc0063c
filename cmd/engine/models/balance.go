package models

import "time"

// UserBalance aggregates a wallet's reward money. USDC columns are cents;
// BCC columns are whole tokens. All columns are non-negative by schema
// constraint, so a bug can never drive a balance below zero.
// Maps to: user_balances table
type UserBalance struct {
	WalletAddress    string    `db:"wallet_address" json:"wallet_address"`
	USDCClaimable    int64     `db:"usdc_claimable" json:"usdc_claimable_cents"`
	USDCPending      int64     `db:"usdc_pending" json:"usdc_pending_cents"`
	USDCClaimedTotal int64     `db:"usdc_claimed_total" json:"usdc_claimed_total_cents"`
	BCCTransferable  int64     `db:"bcc_transferable" json:"bcc_transferable"`
	BCCLocked        int64     `db:"bcc_locked" json:"bcc_locked"`
	TotalWithdrawn   int64     `db:"total_withdrawn" json:"total_withdrawn_cents"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// GlobalCounter is a named monotonic counter. activation_sequence orders
// first activations; activated_members drives BCC phase selection.
// Maps to: global_counters table
type GlobalCounter struct {
	Name  string `db:"name" json:"name"`
	Value int64  `db:"value" json:"value"`
}
