package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Hash domains. The version suffix allows a future algorithm change
// without colliding with stored hashes.
const (
	DomainContractForm = "mcr/contract-form/v1"
	DomainRateForm     = "mcr/rate-form/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash returns the hex SHA-256 of v's canonical JSON under domain.
func Hash(domain string, v any) (string, error) {
	data, err := Marshal(v)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", domain, err)
	}
	return hashWithDomain(domain, data), nil
}
