package upload

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strconv"

	"github.com/google/uuid"
)

var identifierCleaner = regexp.MustCompile(`[^0-9A-Za-z_]`)

// SanitizeIdentifier strips everything outside [0-9A-Za-z_] from a
// client supplied upload identifier.
func SanitizeIdentifier(id string) string {
	return identifierCleaner.ReplaceAllString(id, "")
}

// digest keeps blob names short whatever the identifier or file name
// length: a staged name must fit in one path component of the fs store.
func digest(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:32]
}

// chunkPrefix partitions the staging area by identifier. The digest has
// a fixed length, so the prefix of one upload never matches the chunks
// of another.
func chunkPrefix(identifier string) string {
	return ChunkPrefixAll + digest(identifier) + "."
}

// chunkName is the prefix shared by every copy of one chunk index.
func chunkName(identifier, filename string, index int) string {
	return chunkPrefix(identifier) + digest(identifier, filename) + ".part" + strconv.Itoa(index) + "."
}

// stagedName names one received copy of a chunk. A re-sent chunk becomes
// a new blob; v7 UUIDs sort by creation time so the newest copy is last.
func stagedName(identifier, filename string, index int) string {
	return chunkName(identifier, filename, index) + uuid.Must(uuid.NewV7()).String()
}

func trapName(identifier string) string {
	return "trap_" + digest(identifier)
}

// assembledName is unique per assembly so two uploads of the same file
// name never share a staging blob.
func assembledName(identifier string) string {
	return AssembledPrefixAll + digest(identifier) + "_" + uuid.NewString()
}

// ChunkPrefixAll matches every staged chunk of every upload.
const ChunkPrefixAll = "multipart_"

// AssembledPrefixAll matches every assembly in progress.
const AssembledPrefixAll = "assembled_"
