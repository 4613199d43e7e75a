package service

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// GenerateDataHash returns the hex SHA-256 of v's canonical JSON form:
// object keys sorted, null members omitted, numbers kept verbatim.
// Two values with the same JSON fields hash identically regardless of
// their Go type or construction order.
func GenerateDataHash(v interface{}) (string, error) {
	canonical, err := CanonicalJSON(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// CanonicalJSON encodes v with a stable field order and without nulls.
func CanonicalJSON(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal for hashing: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic interface{}
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("decode for hashing: %w", err)
	}

	// encoding/json writes map keys in sorted order.
	return json.Marshal(dropNulls(generic))
}

func dropNulls(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			if val == nil {
				continue
			}
			out[k] = dropNulls(val)
		}
		return out
	case []interface{}:
		for i := range t {
			t[i] = dropNulls(t[i])
		}
		return t
	default:
		return v
	}
}

// ContentHash is the hex SHA-256 of a raw request payload.
// An empty payload has no hash.
func ContentHash(payload []byte) string {
	if len(payload) == 0 {
		return ""
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
