package id

import (
	"encoding/hex"
	"regexp"

	"github.com/google/uuid"
)

var reID32 = regexp.MustCompile(`^[a-f0-9]{32}$`)

// NewID32 returns a random (v4) id as 32 lowercase hex characters.
func NewID32() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

func IsID32(s string) bool { return reID32.MatchString(s) }
