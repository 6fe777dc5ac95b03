package core

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"dgexport/utils"
)

// NewStateToken generates the one-time correlator passed to the OAuth authorize URL.
// The format is: prefix_otp_key, where otp is 16 random bytes (hex)
// and key is a ULID built from crypto/rand entropy.
func NewStateToken(prefix string) (string, error) {
	utils.AssertInvariant(prefix != "" && strings.TrimSpace(prefix) != "", "prefix cannot be empty")

	otpBytes := make([]byte, 16)
	if _, err := rand.Read(otpBytes); err != nil {
		return "", fmt.Errorf("failed to generate state token: %w", err)
	}
	otp := hex.EncodeToString(otpBytes)

	key, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return "", fmt.Errorf("failed to generate state key: %w", err)
	}

	return fmt.Sprintf("%s_%s_%s", strings.ToLower(strings.TrimSpace(prefix)), otp, key.String()), nil
}
