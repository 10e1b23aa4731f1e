package record

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainRecord separates record content hashes from any other SHA-256 use.
// The version suffix leaves room for changing the canonical form.
const DomainRecord = "persistkit/record/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ContentHash returns the hex SHA-256 of r's canonical JSON, with the record
// kind mixed in so equal bodies of different kinds hash apart.
func ContentHash(r Record) (string, error) {
	canonical, err := MarshalCanonical(r)
	if err != nil {
		return "", fmt.Errorf("content hash: %w", err)
	}
	return hashWithDomain(DomainRecord+"/"+r.RecordKind(), canonical), nil
}
