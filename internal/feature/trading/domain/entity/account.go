// Package entity defines the domain entities for the trading feature.
package entity

// CashAccount is a member's virtual cash balance.
type CashAccount struct {
	// MemberID is the authenticated member that owns the account.
	MemberID uint

	// Balance is the available cash in the smallest currency unit. It is never negative.
	Balance int64

	// Version is incremented on every committed change and used for optimistic concurrency.
	Version int64
}
