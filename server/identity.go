package server

import (
	"crypto/rand"
	"encoding/hex"
)

// identityBytes is the entropy width of a minted identity. 8 bytes renders as
// a 16 character hex token, wide enough that collisions are not a practical
// concern and no collision check is performed on registration.
const identityBytes = 8

// NewIdentity mints a fresh opaque identity for a registering endpoint.
// Device and client identities come from the same generator but live in
// separate registries, so a cross-namespace collision is harmless.
func NewIdentity() string {
	buf := make([]byte, identityBytes)
	rand.Read(buf)
	return hex.EncodeToString(buf)
}
