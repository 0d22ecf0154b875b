// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the persisted types. Field order is the wire format;
// do not reorder without a storage migration.

// DocumentMUS serializes Document values.
var DocumentMUS = documentMUS{}

// IndexRecordMUS serializes IndexRecord values.
var IndexRecordMUS = indexRecordMUS{}

type documentMUS struct{}

func (documentMUS) Marshal(v Document, bs []byte) (n int) {
	n = ord.String.Marshal(string(v.ID), bs)
	n += varint.Int.Marshal(int(v.Source.Kind), bs[n:])
	n += ord.String.Marshal(v.Source.Ref, bs[n:])
	n += ord.String.Marshal(v.MimeType, bs[n:])
	n += ord.String.Marshal(v.Title, bs[n:])
	n += varint.Int.Marshal(int(v.Status), bs[n:])
	n += varint.Int.Marshal(v.ChunkCount, bs[n:])
	n += marshalTime(v.InsertedAt, bs[n:])
	n += marshalTime(v.UpdatedAt, bs[n:])
	return n
}

func (documentMUS) Unmarshal(bs []byte) (v Document, n int, err error) {
	var (
		n1  int
		id  string
		num int
	)
	id, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	v.ID = DocumentID(id)

	num, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Source.Kind = SourceKind(num)

	v.Source.Ref, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.MimeType, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Title, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	num, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Status = IngestionStatus(num)

	v.ChunkCount, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.InsertedAt, n1, err = unmarshalTime(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.UpdatedAt, n1, err = unmarshalTime(bs[n:])
	n += n1
	return
}

func (documentMUS) Size(v Document) (size int) {
	size = ord.String.Size(string(v.ID))
	size += varint.Int.Size(int(v.Source.Kind))
	size += ord.String.Size(v.Source.Ref)
	size += ord.String.Size(v.MimeType)
	size += ord.String.Size(v.Title)
	size += varint.Int.Size(int(v.Status))
	size += varint.Int.Size(v.ChunkCount)
	size += sizeTime(v.InsertedAt)
	size += sizeTime(v.UpdatedAt)
	return size
}

type indexRecordMUS struct{}

func (indexRecordMUS) Marshal(v IndexRecord, bs []byte) (n int) {
	n = ord.String.Marshal(string(v.ChunkID), bs)
	n += ord.String.Marshal(string(v.DocumentID), bs[n:])
	n += ord.String.Marshal(v.Title, bs[n:])
	n += ord.String.Marshal(v.Source, bs[n:])
	n += ord.String.Marshal(v.Text, bs[n:])
	n += marshalVector(v.Vector, bs[n:])
	n += varint.Int.Marshal(v.Sequence, bs[n:])
	n += ord.String.Marshal(v.Label, bs[n:])
	n += ord.String.Marshal(v.ModelVersion, bs[n:])
	return n
}

func (indexRecordMUS) Unmarshal(bs []byte) (v IndexRecord, n int, err error) {
	var (
		n1 int
		s  string
	)
	s, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	v.ChunkID = ChunkID(s)

	s, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.DocumentID = DocumentID(s)

	v.Title, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Source, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Vector, n1, err = unmarshalVector(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Sequence, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Label, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.ModelVersion, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	return
}

func (indexRecordMUS) Size(v IndexRecord) (size int) {
	size = ord.String.Size(string(v.ChunkID))
	size += ord.String.Size(string(v.DocumentID))
	size += ord.String.Size(v.Title)
	size += ord.String.Size(v.Source)
	size += ord.String.Size(v.Text)
	size += sizeVector(v.Vector)
	size += varint.Int.Size(v.Sequence)
	size += ord.String.Size(v.Label)
	size += ord.String.Size(v.ModelVersion)
	return size
}

// Timestamps travel as UnixMicro. Sub-microsecond precision is not
// round-tripped.

func marshalTime(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(t.UnixMicro(), bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	micros, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(micros).UTC(), n, nil
}

func sizeTime(t time.Time) int {
	return varint.Int64.Size(t.UnixMicro())
}

func marshalVector(v []float32, bs []byte) (n int) {
	n = varint.Int.Marshal(len(v), bs)
	for _, f := range v {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return n
}

func unmarshalVector(bs []byte) (v []float32, n int, err error) {
	length, n, err := varint.Int.Unmarshal(bs)
	if err != nil || length == 0 {
		return nil, n, err
	}

	v = make([]float32, length)
	var n1 int
	for i := 0; i < length; i++ {
		v[i], n1, err = raw.Float32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
	}
	return v, n, nil
}

func sizeVector(v []float32) (size int) {
	size = varint.Int.Size(len(v))
	for _, f := range v {
		size += raw.Float32.Size(f)
	}
	return size
}
