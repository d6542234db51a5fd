package badger

import (
	"bytes"
	"encoding/binary"

	"github.com/poiesic/docsearch/core"
	"github.com/poiesic/docsearch/storage"
)

// Key prefixes for different data types
const (
	passagePrefix = "pasrec"
	sectionPrefix = "passec"
	filePrefix    = "pasfil"
	postingPrefix = "lexpos"
)

// makePassageKey generates a key for a passage by ID.
// The ID is written in BigEndian order so iteration yields ascending IDs.
func makePassageKey(id core.ID) []byte {
	prefix := passagePrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeSectionKey generates a composite key for the section adjacency index.
// Format: prefix:sectionID:sequenceIndex
func makeSectionKey(sectionID core.ID, sequenceIndex int) []byte {
	prefix := sectionPrefix + ":"
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	// BigEndian so lexicographic key order matches reading order
	binary.BigEndian.PutUint64(buf[offset:], uint64(sectionID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(sequenceIndex))
	return buf
}

// makePartialSectionKey generates a prefix covering one section's index entries.
func makePartialSectionKey(sectionID core.ID) []byte {
	prefix := sectionPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(sectionID))
	return buf
}

// makeFileKey generates a composite key for the file index.
// The file path is hashed so keys stay fixed-width.
// Format: prefix:fileHash:passageID
func makeFileKey(file string, id core.ID) []byte {
	prefix := filePrefix + ":"
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(core.IDFromContent(file)))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialFileKey generates a prefix covering one file's index entries.
func makePartialFileKey(file string) []byte {
	prefix := filePrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(core.IDFromContent(file)))
	return buf
}

// makePostingKey generates a composite key for one passage's posting of a term.
// Terms contain only [a-z0-9], so the separator is unambiguous.
// Format: prefix:term:passageID
func makePostingKey(term string, id core.ID) []byte {
	prefix := postingPrefix + ":" + term + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// parsePostingKey extracts the term from a posting key.
func parsePostingKey(key []byte) (string, error) {
	prefix := []byte(postingPrefix + ":")
	if !bytes.HasPrefix(key, prefix) || len(key) < len(prefix)+9 {
		return "", storage.ErrTruncatedData
	}
	// term is everything between the prefix and the trailing ":" + 8 ID bytes
	return string(key[len(prefix) : len(key)-9]), nil
}
