package cryptox

import (
	"crypto/subtle"

	"github.com/beamit-app/beamit-server/internal/common"
)

// deviceTokenBytes is the entropy carried by a device token: 256 bits.
const deviceTokenBytes = 32

// NewDeviceToken generates an opaque URL-safe bearer token. A device
// holds exactly one active token; issuing a new one replaces the old.
func NewDeviceToken() string {
	return common.MakeRandURLSafeString(deviceTokenBytes)
}

// TokenEqual compares two tokens in constant time.
func TokenEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
