package security

import "time"

// DefaultClockSkewLeeway is the leeway applied when validating expiry claims
// on tokens minted by a remote provider. It absorbs NTP drift between the
// provider and this gateway. Locally issued tokens use no leeway since both
// issuance and verification happen on the same clock.
const DefaultClockSkewLeeway = 5 * time.Second

// TokenExpired reports whether a token with the given absolute expiry is
// invalid at instant now. The boundary itself counts as expired.
func TokenExpired(expiresAt, now time.Time) bool {
	if expiresAt.IsZero() {
		return false
	}
	return !now.Before(expiresAt)
}

// TokenExpiringSoon reports whether the expiry falls within threshold of now.
func TokenExpiringSoon(expiresAt, now time.Time, threshold time.Duration) bool {
	if expiresAt.IsZero() {
		return false
	}
	return now.Add(threshold).After(expiresAt)
}
