package record

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainRecord   = "listwatch/record/v1"
	DomainSnapshot = "listwatch/snapshot/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null byte prevents domain/data
// boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ContentHash computes the content-addressed identity of a single record
// from its canonical serialization.
func (r Record) ContentHash() (string, error) {
	canonical, err := r.MarshalCanonical()
	if err != nil {
		return "", fmt.Errorf("ContentHash: %w", err)
	}
	return hashWithDomain(DomainRecord, canonical), nil
}

// Hash computes the snapshot's content hash.
//
// The hash must be identical for two snapshots carrying the same records in
// ANY order: each record is hashed individually, the digests are sorted,
// and the sorted digest list is hashed under the snapshot domain. Retrieval
// order therefore never perturbs the result, while any change to any
// record's normalized content does.
func (s Snapshot) Hash() (string, error) {
	digests := make([]string, 0, len(s.Records))
	for _, r := range s.Records {
		d, err := r.ContentHash()
		if err != nil {
			return "", fmt.Errorf("snapshot hash: %w", err)
		}
		digests = append(digests, d)
	}
	sort.Strings(digests)

	h := sha256.New()
	h.Write([]byte(DomainSnapshot))
	h.Write([]byte{0x00})
	for _, d := range digests {
		h.Write([]byte(d))
		h.Write([]byte{0x00})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
