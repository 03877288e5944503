package graph

import (
	"encoding/hex"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"
)

// ContentDigest returns the BLAKE2b-256 content hash of a haplotype's
// sequence, the same digest tilelib.go computes for every tile variant
// it stores ([blake2b.Size256]byte keyed by tag). It is a verification
// aid only: hapId identity comes from the haplotype-VCF input, never
// from this digest.
func ContentDigest(seq string) [blake2b.Size256]byte {
	return blake2b.Sum256([]byte(seq))
}

// VerifyChecksum compares a haplotype's caller-supplied checksum (from
// its "##ALT=<...,Checksum=...>" metadata line) against the BLAKE2b-256
// digest of its actual sequence, logging a mismatch rather than failing
// the build — per the design, the digest is a diagnostic, not a
// replacement for the caller-supplied hapId.
func VerifyChecksum(log logrus.FieldLogger, hapID, want, seq string) {
	if want == "" {
		return
	}
	got := hex.EncodeToString(ContentDigest(seq)[:])
	if got != want {
		log.WithFields(logrus.Fields{"hapId": hapID, "want": want, "got": got}).
			Warn("haplotype sequence checksum mismatch")
	}
}
