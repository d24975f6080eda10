package cache

import "strings"

// HandleVerificationKey holds a pending Codeforces handle verification
func HandleVerificationKey(userID string) string {
	return "verify:codeforces:" + userID
}

// SignupOTPKey holds the code and pending profile for an account sign-up
func SignupOTPKey(email string) string {
	return "otp:register:" + strings.ToLower(email)
}

// PasswordResetOTPKey holds the code for a password reset
func PasswordResetOTPKey(email string) string {
	return "otp:reset:" + strings.ToLower(email)
}

// OTPAttemptsKey counts code attempts against the pending OTP at otpKey
func OTPAttemptsKey(otpKey string) string {
	return otpKey + ":attempts"
}

// EventOTPAttemptsKey counts code attempts against one event OTP token
func EventOTPAttemptsKey(tokenID string) string {
	return "otp:event:" + tokenID + ":attempts"
}

// RateLimitKey is the fixed-window counter for a client in a scope
func RateLimitKey(scope, client string) string {
	return "ratelimit:" + scope + ":" + client
}
