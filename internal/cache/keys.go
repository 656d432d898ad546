package cache

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// BuildKey produces a stable lookup key for params under a namespace prefix.
// Scalars are appended verbatim (`prefix:scalar`). Structured params are
// reduced to a JSON object with lexicographically sorted keys and hashed with
// MD5 (`prefix:hash`), so semantically equal parameter sets always map to the
// same key regardless of field order. The hash is a fingerprint, not a
// security boundary.
func BuildKey(prefix string, params any) string {
	switch v := params.(type) {
	case nil:
		return prefix + ":"
	case string:
		return prefix + ":" + v
	case bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprintf("%s:%v", prefix, v)
	default:
		_ = v
	}

	raw, err := json.Marshal(params)
	if err != nil {
		// Unserializable params still need a deterministic key.
		return prefix + ":" + hash([]byte(fmt.Sprintf("%+v", params)))
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		// Non-object JSON (array, quoted scalar): hash the encoding as-is.
		return prefix + ":" + hash(raw)
	}
	// Re-encoding a map sorts its keys, giving the canonical form.
	canonical, _ := json.Marshal(obj)
	return prefix + ":" + hash(canonical)
}

func hash(b []byte) string {
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])
}
