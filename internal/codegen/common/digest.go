package common

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// GeneratedHeader starts every generated file.
const GeneratedHeader = "// Code generated by gobjgen. DO NOT EDIT."

const digestPrefix = "// gobjgen:digest blake2b-256:"

// Digest hashes the input file together with the generator version, so that
// regenerating is required after either changes.
func Digest(input []byte, version string) string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(version))
	h.Write([]byte{0})
	h.Write(input)
	return hex.EncodeToString(h.Sum(nil))
}

// DigestLine renders the header line carrying a digest.
func DigestLine(digest string) string { return digestPrefix + digest }

// ReadDigest extracts the digest from the header of a generated file.
func ReadDigest(generated []byte) (string, error) {
	sc := bufio.NewScanner(bytes.NewReader(generated))
	for i := 0; sc.Scan() && i < 5; i++ {
		line := strings.TrimSpace(sc.Text())
		if d, ok := strings.CutPrefix(line, digestPrefix); ok {
			return d, nil
		}
	}
	return "", fmt.Errorf("no gobjgen digest in header")
}
