package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NormalizeID turns a JSON id into a plain string. It accepts a JSON string or the
// extended JSON wrapper {"$oid": "<24 hex digits>"} that document stores emit.
func NormalizeID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", fmt.Errorf("%w: missing id", ErrValidation)
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("%w: id: %v", ErrValidation, err)
		}
		if s = strings.TrimSpace(s); s == "" {
			return "", fmt.Errorf("%w: empty id", ErrValidation)
		}
		return s, nil
	case '{':
		var wrapped struct {
			OID string `json:"$oid"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return "", fmt.Errorf("%w: id: %v", ErrValidation, err)
		}
		oid, err := primitive.ObjectIDFromHex(wrapped.OID)
		if err != nil {
			return "", fmt.Errorf("%w: id %q: %v", ErrValidation, wrapped.OID, err)
		}
		return oid.Hex(), nil
	}
	return "", fmt.Errorf("%w: unsupported id %s", ErrValidation, raw)
}
