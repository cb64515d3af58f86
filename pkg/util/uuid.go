package util

import (
	"crypto/md5"
	"encoding/json"

	"github.com/google/uuid"
)

// HashUUID derives a stable uuid from the JSON form of value, "" when value
// cannot be marshalled. Equal configs hash equal.
func HashUUID(value any) string {
	raw, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	hasher := md5.New()
	hasher.Write(raw)
	id, err := uuid.FromBytes(hasher.Sum(nil)[:16])
	if err != nil {
		return ""
	}
	return id.String()
}

// NewID mints a random layer id.
func NewID() string {
	return uuid.NewString()
}
