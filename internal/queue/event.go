// Package queue defines message payloads exchanged over the message broker.
package queue

// OtpRequestedEvent is published when a password-reset OTP is issued.
// Downstream consumers (mailer, audit log) get everything they need to
// deliver the code without querying the primary database.
type OtpRequestedEvent struct {
	Email         string `json:"email"`
	Otp           string `json:"otp"`
	ExpiresInSecs int64  `json:"expires_in_secs"`
	RequestedAt   string `json:"requested_at"`
}
