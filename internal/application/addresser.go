package application

import (
	"crypto/sha1" //nolint:gosec // git object ids are SHA-1 by definition
	"encoding/hex"
	"strconv"
)

// Signature returns the content signature used to compare local and remote
// blobs. It is the git blob object id, which is the sha the GitHub contents
// and tree APIs report, so a manifest alone is enough to detect changes.
func Signature(content []byte) string {
	h := sha1.New() //nolint:gosec
	h.Write([]byte("blob " + strconv.Itoa(len(content)) + "\x00"))
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}
