package auth

import "strings"

// expiryPhrases are the server wordings that mark a credential as
// expired rather than invalid. The server contract is message-based, so
// detection stays a substring match until it grows a structured code.
var expiryPhrases = []string{"过期", "expired", "无效"}

// IsExpiryMessage reports whether an auth failure message indicates an
// expired token, i.e. one worth a refresh-and-retry.
func IsExpiryMessage(message string) bool {
	for _, phrase := range expiryPhrases {
		if strings.Contains(message, phrase) {
			return true
		}
	}
	return false
}
