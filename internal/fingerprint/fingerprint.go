// Package fingerprint computes the content digest used as the dedup key
// for stored URLs.
package fingerprint

import "crypto/sha256"

// Size is the digest length in bytes.
const Size = sha256.Size

// Sum returns the SHA-256 digest of the URL bytes. The result is stable
// across processes and restarts: byte-identical input produces
// byte-identical output.
func Sum(url string) []byte {
	h := sha256.Sum256([]byte(url))
	return h[:]
}
