package modifier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vinicius-lino-figueiredo/gequery/domain"
)

type M = domain.M

type A = domain.A

type timeGetterMock struct{ mock.Mock }

// GetTime implements [domain.TimeGetter].
func (t *timeGetterMock) GetTime() time.Time {
	return t.Called().Get(0).(time.Time)
}

type ModifierTestSuite struct {
	suite.Suite
	m *Modifier
}

func (s *ModifierTestSuite) SetupTest() {
	s.m = NewModifier()
}

func (s *ModifierTestSuite) modify(doc, update M) M {
	res, err := s.m.Modify(doc, update, nil)
	s.Require().NoError(err)
	return res
}

// The source document is never changed.
func (s *ModifierTestSuite) TestCopy() {
	doc := M{"_id": 1, "a": M{"b": 1}}
	res := s.modify(doc, M{"$set": M{"a.b": 2}})
	s.Equal(M{"_id": 1, "a": M{"b": 2}}, res)
	s.Equal(M{"_id": 1, "a": M{"b": 1}}, doc)
}

func (s *ModifierTestSuite) TestReplacementIsRejected() {
	_, err := s.m.Modify(M{}, M{"a": 1}, nil)
	s.ErrorIs(err, ErrReplacement)
	_, err = s.m.Modify(M{}, M{}, nil)
	s.ErrorIs(err, ErrReplacement)
	_, err = s.m.Modify(M{}, M{"$set": M{"a": 1}, "b": 1}, nil)
	s.ErrorIs(err, ErrReplacement)
}

func (s *ModifierTestSuite) TestUnknownModifier() {
	_, err := s.m.Modify(M{}, M{"$rename": M{"a": "b"}}, nil)
	s.ErrorAs(err, &domain.ErrUnknownOperator{})
	_, err = s.m.Modify(M{}, M{"$set": 1}, nil)
	s.ErrorIs(err, ErrNonObject)
}

func (s *ModifierTestSuite) TestCannotModifyID() {
	_, err := s.m.Modify(M{"_id": 1}, M{"$set": M{"_id": 2}}, nil)
	s.ErrorIs(err, ErrCannotModifyID)
	_, err = s.m.Modify(M{"_id": 1}, M{"$unset": M{"_id": ""}}, nil)
	s.ErrorIs(err, ErrCannotModifyID)
	res := s.modify(M{"_id": 1}, M{"$set": M{"_id": 1}})
	s.Equal(M{"_id": 1}, res)
}

// Set values are normalized, so typed lists become lists.
func (s *ModifierTestSuite) TestSet() {
	res := s.modify(M{"a": 1}, M{"$set": M{
		"a":        2,
		"b.c":      []string{"x"},
		"list.1.n": 1,
		"d":        domain.D{{Key: "e", Value: 1}},
	}})
	s.Equal(M{
		"a":    2,
		"b":    M{"c": A{"x"}},
		"list": M{"1": M{"n": 1}},
		"d":    M{"e": 1},
	}, res)

	res = s.modify(M{"list": A{1}}, M{"$set": M{"list.2": 3}})
	s.Equal(A{1, nil, 3}, res["list"])

	_, err := s.m.Modify(M{"a": 1}, M{"$set": M{"a.b": 1}}, nil)
	s.ErrorAs(err, &domain.ErrInvalidPath{})
}

func (s *ModifierTestSuite) TestUnset() {
	res := s.modify(M{"a": 1, "b": M{"c": 1, "d": 2}, "l": A{1, 2}}, M{"$unset": M{
		"a":       "",
		"b.c":     "",
		"l.0":     "",
		"missing": "",
		"x.y.z":   "",
	}})
	s.Equal(M{"b": M{"d": 2}, "l": A{nil, 2}}, res)
}

func (s *ModifierTestSuite) TestInc() {
	res := s.modify(M{"a": int32(1), "b": 1.5, "c": int64(2), "d": 3}, M{"$inc": M{
		"a": 2,
		"b": 1,
		"c": 1,
		"d": -1,
		"e": 5,
	}})
	s.Equal(M{"a": int32(3), "b": 2.5, "c": int64(3), "d": 2, "e": 5}, res)

	res = s.modify(M{"a": int32(math32Max)}, M{"$inc": M{"a": 1}})
	s.Equal(int64(math32Max)+1, res["a"])

	_, err := s.m.Modify(M{"a": "x"}, M{"$inc": M{"a": 1}}, nil)
	s.ErrorAs(err, &ErrModFieldType{})
	_, err = s.m.Modify(M{"a": 1}, M{"$inc": M{"a": "1"}}, nil)
	s.ErrorAs(err, &ErrModArgType{})
}

const math32Max = 1<<31 - 1

func (s *ModifierTestSuite) TestPush() {
	res := s.modify(M{"l": A{1}}, M{"$push": M{"l": 2, "n": M{"a": 1}}})
	s.Equal(M{"l": A{1, 2}, "n": A{M{"a": 1}}}, res)

	res = s.modify(M{"l": A{3}}, M{"$push": M{"l": M{"$each": A{1, 5}, "$sort": -1, "$slice": 2}}})
	s.Equal(A{5, 3}, res["l"])

	res = s.modify(M{"l": A{M{"n": 2}}}, M{"$push": M{"l": M{
		"$each": []M{{"n": 3}, {"n": 1}},
		"$sort": domain.D{{Key: "n", Value: 1}},
	}}})
	s.Equal(A{M{"n": 1}, M{"n": 2}, M{"n": 3}}, res["l"])

	res = s.modify(M{"l": A{1, 2, 3}}, M{"$push": M{"l": M{"$each": A{4}, "$slice": -2}}})
	s.Equal(A{3, 4}, res["l"])

	_, err := s.m.Modify(M{"l": 1}, M{"$push": M{"l": 2}}, nil)
	s.ErrorAs(err, &ErrModFieldType{})
	_, err = s.m.Modify(M{}, M{"$push": M{"l": M{"$each": 1}}}, nil)
	s.ErrorAs(err, &ErrModArgType{})
	_, err = s.m.Modify(M{}, M{"$push": M{"l": M{"$each": A{}, "$position": 0}}}, nil)
	s.ErrorAs(err, &ErrModArgType{})
	_, err = s.m.Modify(M{}, M{"$push": M{"l": M{"$each": A{}, "$slice": 1.5}}}, nil)
	s.ErrorAs(err, &ErrModArgType{})
}

func (s *ModifierTestSuite) TestAddToSet() {
	res := s.modify(M{"l": A{1, "a"}}, M{"$addToSet": M{
		"l": M{"$each": A{1, 2, 2, int64(1)}},
		"n": "x",
	}})
	s.Equal(M{"l": A{1, "a", 2}, "n": A{"x"}}, res)

	_, err := s.m.Modify(M{}, M{"$addToSet": M{"l": M{"$each": A{}, "$sort": 1}}}, nil)
	s.ErrorAs(err, &ErrModArgType{})
}

func (s *ModifierTestSuite) TestPop() {
	res := s.modify(M{"a": A{1, 2, 3}, "b": A{1, 2, 3}, "c": A{}}, M{"$pop": M{"a": 1, "b": -1, "c": 1, "d": 1}})
	s.Equal(M{"a": A{1, 2}, "b": A{2, 3}, "c": A{}}, res)

	_, err := s.m.Modify(M{"a": A{}}, M{"$pop": M{"a": 2}}, nil)
	s.ErrorAs(err, &ErrModArgType{})
}

func (s *ModifierTestSuite) TestPull() {
	doc := M{
		"n":     A{1, 5, 8, 5},
		"items": A{M{"a": 1, "b": 1}, M{"a": 2, "b": 1}, "x"},
	}
	res := s.modify(doc, M{"$pull": M{"n": 5}})
	s.Equal(A{1, 8}, res["n"])

	res = s.modify(doc, M{"$pull": M{"n": M{"$gte": 5}}})
	s.Equal(A{1}, res["n"])

	res = s.modify(doc, M{"$pull": M{"items": M{"a": 2}}})
	s.Equal(A{M{"a": 1, "b": 1}, "x"}, res["items"])

	res = s.modify(doc, M{"$pull": M{"n": M{"$in": A{1, 8}}, "missing": 1}})
	s.Equal(A{5, 5}, res["n"])

	_, err := s.m.Modify(M{"a": 1}, M{"$pull": M{"a": 1}}, nil)
	s.ErrorAs(err, &ErrModFieldType{})
}

func (s *ModifierTestSuite) TestMaxMin() {
	res := s.modify(M{"a": 5, "b": 5}, M{"$max": M{"a": 3, "b": 7, "c": 1}, "$min": M{"d": 2}})
	s.Equal(M{"a": 5, "b": 7, "c": 1, "d": 2}, res)

	res = s.modify(M{"a": 5}, M{"$min": M{"a": 3}})
	s.Equal(3, res["a"])
}

func (s *ModifierTestSuite) TestCurrentDate() {
	now := time.UnixMilli(1700000000000).UTC()
	tg := new(timeGetterMock)
	tg.On("GetTime").Return(now)
	s.m = NewModifier(WithTimeGetter(tg))

	res := s.modify(M{}, M{"$currentDate": M{
		"a": true,
		"b": M{"$type": "date"},
		"c": M{"$type": "timestamp"},
	}})
	s.Equal(M{
		"a": primitive.NewDateTimeFromTime(now),
		"b": primitive.NewDateTimeFromTime(now),
		"c": primitive.Timestamp{T: uint32(now.Unix()), I: 1},
	}, res)

	_, err := s.m.Modify(M{}, M{"$currentDate": M{"a": M{"$type": "year"}}}, nil)
	s.ErrorAs(err, &ErrModArgType{})
	_, err = s.m.Modify(M{}, M{"$currentDate": M{"a": false}}, nil)
	s.ErrorAs(err, &ErrModArgType{})
}

// "$" updates the first element selected by the query.
func (s *ModifierTestSuite) TestPositional() {
	doc := M{"items": A{M{"id": 1, "q": 1}, M{"id": 2, "q": 1}}, "tags": A{"a", "b"}}

	res, err := s.m.Modify(doc, M{"$set": M{"items.$.q": 5}}, M{"items.id": 2})
	s.NoError(err)
	s.Equal(A{M{"id": 1, "q": 1}, M{"id": 2, "q": 5}}, res["items"])

	res, err = s.m.Modify(doc, M{"$set": M{"tags.$": "z"}}, M{"tags": "b"})
	s.NoError(err)
	s.Equal(A{"a", "z"}, res["tags"])

	_, err = s.m.Modify(doc, M{"$set": M{"items.$.q": 5}}, M{"_id": 1})
	s.ErrorIs(err, ErrNoPositionalMatch)
	_, err = s.m.Modify(doc, M{"$set": M{"items.$.q": 5}}, M{"items.id": 3})
	s.ErrorIs(err, ErrNoPositionalMatch)
}

// "$[]" updates every element and "$[id]" the ones selected by the filters.
func (s *ModifierTestSuite) TestAllPositional() {
	doc := M{"items": A{M{"q": 1}, M{"q": 7}, M{"q": 9}}}

	res := s.modify(doc, M{"$inc": M{"items.$[].q": 1}})
	s.Equal(A{M{"q": 2}, M{"q": 8}, M{"q": 10}}, res["items"])

	res, err := s.m.Modify(doc, M{"$set": M{"items.$[big].q": 0}}, nil, M{"big.q": M{"$gte": 7}})
	s.NoError(err)
	s.Equal(A{M{"q": 1}, M{"q": 0}, M{"q": 0}}, res["items"])

	res, err = s.m.Modify(M{"n": A{1, 5}}, M{"$set": M{"n.$[e]": 0}}, nil, domain.D{{Key: "e", Value: M{"$lt": 3}}})
	s.NoError(err)
	s.Equal(A{0, 5}, res["n"])

	_, err = s.m.Modify(doc, M{"$set": M{"items.$[x].q": 0}}, nil, M{"y": 1})
	s.ErrorAs(err, &ErrMissingArrayFilter{})
	_, err = s.m.Modify(doc, M{"$set": M{"items.$[x].q": 0}}, nil, 1)
	s.ErrorAs(err, &ErrModArgType{})
}

func TestModifierTestSuite(t *testing.T) {
	suite.Run(t, new(ModifierTestSuite))
}
