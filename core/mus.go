package core

import (
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// Hand-rolled MUS serializers for the persisted domain types. The wire layout
// is the field order written below; changing it invalidates stored corpora.
var (
	IDMUS      = idMUS{}
	PassageMUS = passageMUS{}
	PostingMUS = postingMUS{}
)

var (
	headingPathMUS = ord.NewSliceSer[string](ord.String)
	vectorMUS      = ord.NewSliceSer[float32](raw.Float32)
)

type idMUS struct{}

func (idMUS) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

func (idMUS) Skip(bs []byte) (int, error) {
	return varint.Uint64.Skip(bs)
}

type passageMUS struct{}

func (passageMUS) Marshal(p Passage, bs []byte) (n int) {
	n = IDMUS.Marshal(p.Id, bs)
	n += ord.String.Marshal(p.Text, bs[n:])
	n += ord.String.Marshal(p.File, bs[n:])
	n += headingPathMUS.Marshal(p.HeadingPath, bs[n:])
	n += varint.Int.Marshal(p.Page, bs[n:])
	n += IDMUS.Marshal(p.SectionId, bs[n:])
	n += varint.Int.Marshal(p.SequenceIndex, bs[n:])
	n += varint.Int.Marshal(p.TokenCount, bs[n:])
	n += vectorMUS.Marshal(p.Vector, bs[n:])
	return n
}

func (passageMUS) Unmarshal(bs []byte) (p Passage, n int, err error) {
	var m int
	p.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	p.Text, m, err = ord.String.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	p.File, m, err = ord.String.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	p.HeadingPath, m, err = headingPathMUS.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	p.Page, m, err = varint.Int.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	p.SectionId, m, err = IDMUS.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	p.SequenceIndex, m, err = varint.Int.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	p.TokenCount, m, err = varint.Int.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return
	}
	p.Vector, m, err = vectorMUS.Unmarshal(bs[n:])
	n += m
	return
}

func (passageMUS) Size(p Passage) (size int) {
	size = IDMUS.Size(p.Id)
	size += ord.String.Size(p.Text)
	size += ord.String.Size(p.File)
	size += headingPathMUS.Size(p.HeadingPath)
	size += varint.Int.Size(p.Page)
	size += IDMUS.Size(p.SectionId)
	size += varint.Int.Size(p.SequenceIndex)
	size += varint.Int.Size(p.TokenCount)
	size += vectorMUS.Size(p.Vector)
	return size
}

func (passageMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = PassageMUS.Unmarshal(bs)
	return
}

type postingMUS struct{}

func (postingMUS) Marshal(p Posting, bs []byte) (n int) {
	n = IDMUS.Marshal(p.PassageId, bs)
	n += varint.Int.Marshal(p.TermFreq, bs[n:])
	return n
}

func (postingMUS) Unmarshal(bs []byte) (p Posting, n int, err error) {
	var m int
	p.PassageId, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	p.TermFreq, m, err = varint.Int.Unmarshal(bs[n:])
	n += m
	return
}

func (postingMUS) Size(p Posting) int {
	return IDMUS.Size(p.PassageId) + varint.Int.Size(p.TermFreq)
}

func (postingMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = PostingMUS.Unmarshal(bs)
	return
}
