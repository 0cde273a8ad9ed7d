package domain

import "time"

// LoginSucceededEvent is published after a successful authentication.
type LoginSucceededEvent struct {
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	IPAddress  string    `json:"ip_address,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// LoginFailedEvent is published after a failed authentication attempt.
type LoginFailedEvent struct {
	UserID     *string   `json:"user_id,omitempty"`
	Email      string    `json:"email"`
	Reason     string    `json:"reason"`
	IPAddress  string    `json:"ip_address,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// AccountLockedEvent is published when repeated failures lock an account.
type AccountLockedEvent struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	LockedUntil time.Time `json:"locked_until"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// DeviceStateChangedEvent is published when a device reports a new state.
type DeviceStateChangedEvent struct {
	DeviceID   string    `json:"device_id"`
	OldState   string    `json:"old_state"`
	NewState   string    `json:"new_state"`
	OccurredAt time.Time `json:"occurred_at"`
}
