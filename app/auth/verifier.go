package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// adminSecretDigest is the lowercase hex SHA-256 of the operator secret.
const adminSecretDigest = "bea060014b0a824a9a1ec7c5cbadb532fbbbd504576c412f888840f02673a460"

// Verifier checks a candidate secret against a fixed SHA-256 digest.
// It keeps no state: there is no lockout or attempt counting.
type Verifier struct {
	digest string
}

// NewVerifier returns a Verifier for the built-in operator secret.
func NewVerifier() *Verifier {
	return &Verifier{digest: adminSecretDigest}
}

// Verify reports whether candidate hashes to the reference digest.
func (v *Verifier) Verify(candidate string) bool {
	sum := sha256.Sum256([]byte(candidate))
	got := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(got), []byte(v.digest)) == 1
}
