package oauth

import "time"

// Messages reported by ComputeTokenInfo.
const (
	TokenInfoMessageValid   = "Token is valid."
	TokenInfoMessageExpired = "Token expired. Please refresh or re-authenticate."
)

// TokenInfo describes a stored token without contacting the server.
type TokenInfo struct {
	HasAccessToken         bool   `json:"has_access_token"`
	AccessTokenLength      int    `json:"access_token_length"`
	TokenExpiry            int64  `json:"token_expiry"`
	IsExpired              bool   `json:"is_expired"`
	TimeUntilExpirySeconds int64  `json:"time_until_expiry_seconds"`
	Message                string `json:"message"`
}

// ComputeTokenInfo inspects an access token and its expiry relative to now.
// A zero expiry means the expiry is unknown: the token is reported as not
// expired with zero remaining seconds.
func ComputeTokenInfo(accessToken string, expiresAt, now time.Time) TokenInfo {
	info := TokenInfo{
		HasAccessToken:    accessToken != "",
		AccessTokenLength: len(accessToken),
		Message:           TokenInfoMessageValid,
	}

	if expiresAt.IsZero() {
		return info
	}

	info.TokenExpiry = expiresAt.UnixMilli()
	if now.After(expiresAt) {
		info.IsExpired = true
		info.Message = TokenInfoMessageExpired
		return info
	}

	info.TimeUntilExpirySeconds = int64(expiresAt.Sub(now) / time.Second)
	return info
}

// ExpiryFromUnixMilli converts a stored unix-millisecond expiry to a time.
// Zero and negative values yield the zero time.
func ExpiryFromUnixMilli(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
