package models

import (
	"math"
	"time"
)

// User represents a customer account of the tuning service as returned by
// the admin API. All fields are server-owned; the bot never mutates a user
// locally without a confirming round trip.
type User struct {
	ID             int        `json:"id"`              // Unique identifier of the user
	TelegramID     int64      `json:"telegram_id"`     // Telegram account linked to the user
	Username       string     `json:"username"`        // Telegram username, may be empty
	Balance        float64    `json:"balance"`         // Current account balance
	Level          string     `json:"level"`           // Loyalty level assigned by the server
	TotalPurchases int        `json:"total_purchases"` // Number of completed purchases
	Coefficient    float64    `json:"coefficient"`     // Price multiplier, 1.0 means full price
	IsPartner      bool       `json:"is_partner"`      // Partner tier flag
	IsSlave        bool       `json:"is_slave"`        // Sub-account tier flag
	IsBlocked      bool       `json:"is_blocked"`      // Whether the user is blocked
	CreatedAt      time.Time  `json:"created_at"`      // Timestamp of registration
	LastActive     *time.Time `json:"last_active"`     // Last activity, nil if never recorded
}

// AdminSession is the bearer credential an admin obtained by logging in,
// keyed by their Telegram ID. It is the only state this application persists.
type AdminSession struct {
	TelegramID int64     // Telegram ID of the admin panel operator
	Token      string    // Bearer token issued by the admin API
	Username   string    // Admin username the token was issued for
	Role       string    // "admin" or "operator"
	LoggedInAt time.Time // When the session was established
}

// IsAdmin reports whether the session carries the full admin role.
// Operators get a read-only view of staff management.
func (s AdminSession) IsAdmin() bool {
	return s.Role == "admin"
}

// DiscountPercent converts a price coefficient into the discount percentage
// shown to operators: 0.6 becomes 40, 1.0 becomes 0.
func DiscountPercent(coefficient float64) int {
	return int(math.Round((1 - coefficient) * 100))
}
