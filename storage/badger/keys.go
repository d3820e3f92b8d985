package badger

import (
	"encoding/binary"
	"strings"

	"github.com/poiesic/medimatch/storage"
)

// Key prefixes for different data types
const (
	conceptRecordPrefix = "conrec"
	conceptLabelPrefix  = "conlbl"
	catalogInfoPrefix   = "catinf"
)

// validateCatalog rejects names that would make key prefixes ambiguous.
func validateCatalog(name string) error {
	if name == "" || strings.ContainsAny(name, ":\x00") {
		return storage.ErrInvalidCatalog
	}
	return nil
}

// makeConceptPrefix returns the prefix shared by every concept of a catalogue.
// Format: prefix:catalog:
func makeConceptPrefix(catalog string) []byte {
	return []byte(conceptRecordPrefix + ":" + catalog + ":")
}

// makeConceptKey generates a key for a concept by ordinal.
// Format: prefix:catalog:ordinal
func makeConceptKey(catalog string, ordinal int) []byte {
	prefix := makeConceptPrefix(catalog)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	// Write in BigEndian order so iteration follows catalogue order
	binary.BigEndian.PutUint64(buf[offset:], uint64(ordinal))
	return buf
}

// makeLabelPrefix returns the prefix shared by every label index entry of a catalogue.
func makeLabelPrefix(catalog string) []byte {
	return []byte(conceptLabelPrefix + ":" + catalog + ":")
}

// makeLabelKey generates a key for the case-insensitive label index.
// Format: prefix:catalog:label
func makeLabelKey(catalog, label string) []byte {
	return append(makeLabelPrefix(catalog), strings.ToLower(strings.TrimSpace(label))...)
}

// makeCatalogInfoKey generates a key for catalogue metadata.
func makeCatalogInfoKey(name string) []byte {
	return []byte(catalogInfoPrefix + ":" + name)
}

func encodeOrdinal(ordinal int) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(ordinal))
	return buf
}

func decodeOrdinal(val []byte) (int, error) {
	if len(val) != 8 {
		return 0, storage.ErrSerializationFailed
	}
	return int(binary.BigEndian.Uint64(val)), nil
}
