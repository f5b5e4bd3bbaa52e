package utils

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
)

func HashString(input string) string {
	hash := md5.Sum([]byte(input))
	return fmt.Sprintf("%x", hash)
}

// HashPayload returns a stable hex digest of an opaque payload map.
// encoding/json sorts map keys, so identical payloads always produce
// the same digest regardless of insertion order.
func HashPayload(payload map[string]interface{}) string {
	data, err := json.Marshal(payload)
	if err != nil {
		// Non-serialisable values degrade to their Go string form,
		// which is still deterministic for a given payload.
		data = []byte(fmt.Sprintf("%v", payload))
	}
	hash := md5.Sum(data)
	return fmt.Sprintf("%x", hash)
}
