package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the records kept in storage. Fields are written in
// declaration order; slices carry a varint length prefix.

// IDMUS serializes an ID.
var IDMUS = idMUS{}

// ConceptMUS serializes a Concept.
var ConceptMUS = conceptMUS{}

// CatalogInfoMUS serializes a CatalogInfo.
var CatalogInfoMUS = catalogInfoMUS{}

type idMUS struct{}

func (s idMUS) Marshal(v ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (s idMUS) Unmarshal(bs []byte) (v ID, n int, err error) {
	u, n, err := varint.Uint64.Unmarshal(bs)
	return ID(u), n, err
}

func (s idMUS) Size(v ID) (size int) {
	return varint.Uint64.Size(uint64(v))
}

func (s idMUS) Skip(bs []byte) (n int, err error) {
	return varint.Uint64.Skip(bs)
}

// length prefixes and ints

func marshalInt(v int, bs []byte) int {
	return varint.Int64.Marshal(int64(v), bs)
}

func unmarshalInt(bs []byte) (int, int, error) {
	v, n, err := varint.Int64.Unmarshal(bs)
	return int(v), n, err
}

func sizeInt(v int) int {
	return varint.Int64.Size(int64(v))
}

func unmarshalLen(bs []byte) (int, int, error) {
	l, n, err := varint.Uint64.Unmarshal(bs)
	if err != nil {
		return 0, n, err
	}
	// Every element takes at least one byte.
	if l > uint64(len(bs)-n) {
		return 0, n, ErrCorruptRecord
	}
	return int(l), n, nil
}

// string slices

func marshalStrings(v []string, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(len(v)), bs)
	for _, s := range v {
		n += ord.String.Marshal(s, bs[n:])
	}
	return n
}

func unmarshalStrings(bs []byte) (v []string, n int, err error) {
	l, n, err := unmarshalLen(bs)
	if err != nil || l == 0 {
		return nil, n, err
	}
	v = make([]string, l)
	for i := range v {
		var m int
		v[i], m, err = ord.String.Unmarshal(bs[n:])
		n += m
		if err != nil {
			return nil, n, err
		}
	}
	return v, n, nil
}

func sizeStrings(v []string) (size int) {
	size = varint.Uint64.Size(uint64(len(v)))
	for _, s := range v {
		size += ord.String.Size(s)
	}
	return size
}

// vectors

func marshalVector(v []float32, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(len(v)), bs)
	for _, f := range v {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return n
}

func unmarshalVector(bs []byte) (v []float32, n int, err error) {
	l, n, err := unmarshalLen(bs)
	if err != nil || l == 0 {
		return nil, n, err
	}
	v = make([]float32, l)
	for i := range v {
		var m int
		v[i], m, err = raw.Float32.Unmarshal(bs[n:])
		n += m
		if err != nil {
			return nil, n, err
		}
	}
	return v, n, nil
}

func sizeVector(v []float32) int {
	return varint.Uint64.Size(uint64(len(v))) + len(v)*raw.Float32.Size(0)
}

// recommended tests

func marshalTests(v []RecommendedTest, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(len(v)), bs)
	for _, t := range v {
		n += ord.String.Marshal(t.Name, bs[n:])
		n += ord.String.Marshal(t.Description, bs[n:])
	}
	return n
}

func unmarshalTests(bs []byte) (v []RecommendedTest, n int, err error) {
	l, n, err := unmarshalLen(bs)
	if err != nil || l == 0 {
		return nil, n, err
	}
	v = make([]RecommendedTest, l)
	for i := range v {
		var m int
		if v[i].Name, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
			return nil, n + m, err
		}
		n += m
		if v[i].Description, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
			return nil, n + m, err
		}
		n += m
	}
	return v, n, nil
}

func sizeTests(v []RecommendedTest) (size int) {
	size = varint.Uint64.Size(uint64(len(v)))
	for _, t := range v {
		size += ord.String.Size(t.Name) + ord.String.Size(t.Description)
	}
	return size
}

type conceptMUS struct{}

func (s conceptMUS) Marshal(v Concept, bs []byte) (n int) {
	n = ord.String.Marshal(v.Id, bs)
	n += IDMUS.Marshal(v.Key, bs[n:])
	n += marshalInt(v.Ordinal, bs[n:])
	n += ord.String.Marshal(v.Label, bs[n:])
	n += ord.String.Marshal(v.Description, bs[n:])
	n += marshalStrings(v.Synonyms, bs[n:])
	n += ord.String.Marshal(v.System, bs[n:])
	n += marshalStrings(v.Specialists, bs[n:])
	n += marshalTests(v.RecommendedTests, bs[n:])
	n += marshalVector(v.Vector, bs[n:])
	return n
}

func (s conceptMUS) Unmarshal(bs []byte) (v Concept, n int, err error) {
	var m int
	if v.Id, m, err = ord.String.Unmarshal(bs); err != nil {
		return Concept{}, m, err
	}
	n += m
	if v.Key, m, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return Concept{}, n + m, err
	}
	n += m
	if v.Ordinal, m, err = unmarshalInt(bs[n:]); err != nil {
		return Concept{}, n + m, err
	}
	n += m
	if v.Label, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return Concept{}, n + m, err
	}
	n += m
	if v.Description, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return Concept{}, n + m, err
	}
	n += m
	synonyms, m, err := unmarshalStrings(bs[n:])
	if err != nil {
		return Concept{}, n + m, err
	}
	v.Synonyms = Synonyms(synonyms)
	n += m
	if v.System, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return Concept{}, n + m, err
	}
	n += m
	if v.Specialists, m, err = unmarshalStrings(bs[n:]); err != nil {
		return Concept{}, n + m, err
	}
	n += m
	if v.RecommendedTests, m, err = unmarshalTests(bs[n:]); err != nil {
		return Concept{}, n + m, err
	}
	n += m
	if v.Vector, m, err = unmarshalVector(bs[n:]); err != nil {
		return Concept{}, n + m, err
	}
	n += m
	return v, n, nil
}

func (s conceptMUS) Size(v Concept) (size int) {
	size = ord.String.Size(v.Id)
	size += IDMUS.Size(v.Key)
	size += sizeInt(v.Ordinal)
	size += ord.String.Size(v.Label)
	size += ord.String.Size(v.Description)
	size += sizeStrings(v.Synonyms)
	size += ord.String.Size(v.System)
	size += sizeStrings(v.Specialists)
	size += sizeTests(v.RecommendedTests)
	size += sizeVector(v.Vector)
	return size
}

func (s conceptMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return n, err
}

type catalogInfoMUS struct{}

func (s catalogInfoMUS) Marshal(v CatalogInfo, bs []byte) (n int) {
	n = ord.String.Marshal(v.Name, bs)
	n += marshalInt(v.Concepts, bs[n:])
	n += marshalInt(v.Dimension, bs[n:])
	n += ord.String.Marshal(v.EmbeddingModel, bs[n:])
	n += varint.Int64.Marshal(v.UpdatedAt.UnixMicro(), bs[n:])
	return n
}

func (s catalogInfoMUS) Unmarshal(bs []byte) (v CatalogInfo, n int, err error) {
	var m int
	if v.Name, m, err = ord.String.Unmarshal(bs); err != nil {
		return CatalogInfo{}, m, err
	}
	n += m
	if v.Concepts, m, err = unmarshalInt(bs[n:]); err != nil {
		return CatalogInfo{}, n + m, err
	}
	n += m
	if v.Dimension, m, err = unmarshalInt(bs[n:]); err != nil {
		return CatalogInfo{}, n + m, err
	}
	n += m
	if v.EmbeddingModel, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return CatalogInfo{}, n + m, err
	}
	n += m
	micros, m, err := varint.Int64.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return CatalogInfo{}, n, err
	}
	v.UpdatedAt = time.UnixMicro(micros).UTC()
	return v, n, nil
}

func (s catalogInfoMUS) Size(v CatalogInfo) (size int) {
	size = ord.String.Size(v.Name)
	size += sizeInt(v.Concepts)
	size += sizeInt(v.Dimension)
	size += ord.String.Size(v.EmbeddingModel)
	size += varint.Int64.Size(v.UpdatedAt.UnixMicro())
	return size
}

func (s catalogInfoMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return n, err
}
