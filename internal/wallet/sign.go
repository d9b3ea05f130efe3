package wallet

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// signRequest computes the x-signature header value:
// HMAC-SHA256(secret, METHOD || path || body || timestamp), hex encoded.
// The body bytes signed are exactly the body bytes sent, so both sides
// agree on the canonical form without re-serializing.
func signRequest(secret []byte, method, path string, body []byte, timestampMS int64) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(method))
	mac.Write([]byte(path))
	mac.Write(body)
	mac.Write([]byte(strconv.FormatInt(timestampMS, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}
