// Package digest computes the 160-bit identifiers used for blobs and commits.
package digest

import (
	"encoding/hex"
	"fmt"

	"github.com/multiformats/go-multihash"
)

const (
	hexLengthConstant             = 40
	shortLengthConstant           = 7
	sumErrorTemplateConstant      = "compute sha1 multihash: %w"
	decodeErrorTemplateConstant   = "decode sha1 multihash: %w"
	invalidDigestTemplateConstant = "invalid digest %q"
)

// Digest is the lowercase hexadecimal form of a SHA-1 sum.
type Digest string

// None is the zero Digest, used for absent parents.
const None Digest = ""

// String returns the hexadecimal representation.
func (value Digest) String() string {
	return string(value)
}

// IsZero reports whether the digest is unset.
func (value Digest) IsZero() bool {
	return len(value) == 0
}

// Short returns the leading seven characters used in merge log lines.
func (value Digest) Short() string {
	if len(value) <= shortLengthConstant {
		return string(value)
	}
	return string(value[:shortLengthConstant])
}

// Sum hashes the concatenation of parts.
func Sum(parts ...[]byte) (Digest, error) {
	totalLength := 0
	for _, part := range parts {
		totalLength += len(part)
	}
	concatenated := make([]byte, 0, totalLength)
	for _, part := range parts {
		concatenated = append(concatenated, part...)
	}

	encodedMultihash, sumError := multihash.Sum(concatenated, multihash.SHA1, -1)
	if sumError != nil {
		return None, fmt.Errorf(sumErrorTemplateConstant, sumError)
	}
	decodedMultihash, decodeError := multihash.Decode(encodedMultihash)
	if decodeError != nil {
		return None, fmt.Errorf(decodeErrorTemplateConstant, decodeError)
	}
	return Digest(hex.EncodeToString(decodedMultihash.Digest)), nil
}

// SumStrings hashes the concatenation of the provided strings.
func SumStrings(parts ...string) (Digest, error) {
	byteParts := make([][]byte, 0, len(parts))
	for _, part := range parts {
		byteParts = append(byteParts, []byte(part))
	}
	return Sum(byteParts...)
}

// OfBlob computes a blob digest. The path name participates in the hash, so
// identical bytes stored under two names yield two distinct digests.
func OfBlob(path string, content []byte) (Digest, error) {
	return Sum([]byte(path), content)
}

// Parse validates a full hexadecimal digest.
func Parse(value string) (Digest, error) {
	if len(value) != hexLengthConstant {
		return None, fmt.Errorf(invalidDigestTemplateConstant, value)
	}
	if _, decodeError := hex.DecodeString(value); decodeError != nil {
		return None, fmt.Errorf(invalidDigestTemplateConstant, value)
	}
	return Digest(value), nil
}
