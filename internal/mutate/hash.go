package mutate

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Hash returns the hex blake3 digest of doc. Callers compare hashes to
// detect that a document changed between read and write.
func Hash(doc string) string {
	hasher := blake3.New()
	_, _ = hasher.Write([]byte(doc))
	return hex.EncodeToString(hasher.Sum(nil))
}
