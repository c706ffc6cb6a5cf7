package cloner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vinicius-lino-figueiredo/gequery/domain"
)

type ClonerTestSuite struct {
	suite.Suite
}

// Nested documents and lists should be copied, so changing the copy does not
// reach the source.
func (s *ClonerTestSuite) TestNestedDocument() {
	src := domain.M{
		"a": domain.M{"b": bson.A{1, domain.M{"c": 2}}},
		"d": []any{"x"},
	}
	cp := CloneDoc(src)
	s.Equal(src, cp)

	cp["a"].(domain.M)["b"].(bson.A)[1].(domain.M)["c"] = 3
	cp["d"].([]any)[0] = "y"
	cp["e"] = true

	s.Equal(domain.M{
		"a": domain.M{"b": bson.A{1, domain.M{"c": 2}}},
		"d": []any{"x"},
	}, src)
}

// Ordered documents keep their key order and are deep copied.
func (s *ClonerTestSuite) TestOrdered() {
	src := domain.D{{Key: "z", Value: domain.M{"a": 1}}, {Key: "a", Value: -1}}
	cp := CloneOrdered(src)
	s.Equal(src, cp)

	cp[0].Value.(domain.M)["a"] = 2
	s.Equal(1, src[0].Value.(domain.M)["a"])
}

// Slices and maps with concrete element types are cloned by reflection and
// keep their type.
func (s *ClonerTestSuite) TestTypedCollections() {
	strs := []string{"a", "b"}
	cp := Clone(strs).([]string)
	s.Equal(strs, cp)
	cp[0] = "c"
	s.Equal("a", strs[0])

	ints := map[string]int{"a": 1}
	cpm := Clone(ints).(map[string]int)
	s.Equal(ints, cpm)
	cpm["a"] = 2
	s.Equal(1, ints["a"])

	docs := []domain.M{{"a": 1}}
	cpd := Clone(docs).([]domain.M)
	cpd[0]["a"] = 2
	s.Equal(1, docs[0]["a"])
}

// Immutable values are returned unchanged.
func (s *ClonerTestSuite) TestScalars() {
	id := primitive.NewObjectID()
	now := time.Now()
	for _, v := range []any{nil, 1, "s", 1.5, true, id, now, primitive.Regex{Pattern: "a"}} {
		s.Equal(v, Clone(v))
	}
	s.Nil(CloneDoc(nil))
	s.Nil(CloneOrdered(nil))
}

// Binary payloads do not share their byte slice.
func (s *ClonerTestSuite) TestBinary() {
	b := primitive.Binary{Subtype: 0, Data: []byte{1, 2}}
	cp := Clone(b).(primitive.Binary)
	cp.Data[0] = 9
	s.Equal(byte(1), b.Data[0])
}

// Normalized values only hold M documents and A lists.
func (s *ClonerTestSuite) TestNormalize() {
	src := domain.D{
		{Key: "a", Value: []any{domain.D{{Key: "b", Value: 1}}}},
		{Key: "c", Value: map[string]any{"d": []domain.M{{"e": 2}}}},
		{Key: "f", Value: []string{"g"}},
		{Key: "h", Value: map[string]int{"i": 1}},
		{Key: "j", Value: []byte{1}},
	}
	s.Equal(domain.M{
		"a": domain.A{domain.M{"b": 1}},
		"c": domain.M{"d": domain.A{domain.M{"e": 2}}},
		"f": domain.A{"g"},
		"h": domain.M{"i": 1},
		"j": []byte{1},
	}, Normalize(src))
	id := primitive.NewObjectID()
	s.Equal(id, Normalize(id))
	s.Nil(NormalizeDoc(nil))
}

// Structs are converted with their bson encoding.
func (s *ClonerTestSuite) TestToDocumentStruct() {
	type nested struct {
		Value int `bson:"value"`
	}
	type entity struct {
		ID      primitive.ObjectID `bson:"_id,omitempty"`
		Name    string             `bson:"name"`
		Created time.Time          `bson:"created"`
		Nested  nested             `bson:"nested"`
		Tags    []string           `bson:"tags"`
	}

	created := time.UnixMilli(1700000000000).UTC()
	doc, err := ToDocument(entity{Name: "a", Created: created, Nested: nested{Value: 1}, Tags: []string{"x"}})
	s.NoError(err)
	s.Equal(domain.M{
		"name":    "a",
		"created": primitive.NewDateTimeFromTime(created),
		"nested":  domain.M{"value": int32(1)},
		"tags":    domain.A{"x"},
	}, doc)
}

// Documents are copied, so the caller's value is not modified.
func (s *ClonerTestSuite) TestToDocumentMap() {
	src := domain.M{"a": domain.D{{Key: "b", Value: 1}}}
	doc, err := ToDocument(src)
	s.NoError(err)
	doc["c"] = 2
	s.Equal(domain.M{"a": domain.M{"b": 1}, "c": 2}, doc)
	s.Len(src, 1)

	doc, err = ToDocument(nil)
	s.NoError(err)
	s.Equal(domain.M{}, doc)
}

// Values that cannot be a document fail.
func (s *ClonerTestSuite) TestToDocumentError() {
	_, err := ToDocument(12)
	s.Error(err)
}

func TestClonerTestSuite(t *testing.T) {
	suite.Run(t, new(ClonerTestSuite))
}
