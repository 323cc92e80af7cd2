package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

const (
	HeaderTimestamp = "X-SignalRelay-Timestamp"
	HeaderSignature = "X-SignalRelay-Signature"
)

// Sign returns the v1 signature over "<unix ts>.<payload>".
func Sign(secret string, payload []byte, at time.Time) (signature string, timestamp int64) {
	timestamp = at.Unix()
	return "v1=" + digest(secret, timestamp, payload), timestamp
}

func Verify(secret string, payload []byte, timestamp int64, signature string) bool {
	expected := "v1=" + digest(secret, timestamp, payload)
	return hmac.Equal([]byte(expected), []byte(signature))
}

func digest(secret string, timestamp int64, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte{'.'})
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
