package condition

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/vinicius-lino-figueiredo/gequery/domain"
)

type ConditionTestSuite struct {
	suite.Suite
	a *Accumulator
}

func (s *ConditionTestSuite) SetupTest() {
	s.a = NewAccumulator()
}

// An accumulator without fragments renders an empty condition, not nil.
func (s *ConditionTestSuite) TestEmpty() {
	s.Equal(domain.M{}, s.a.Condition())
	s.Zero(s.a.Len())
}

// Fragments on disjoint fields should all be present, whatever the order they
// were added in.
func (s *ConditionTestSuite) TestDisjointFieldsCommute() {
	first := NewAccumulator()
	first.Add(And, domain.M{"a": 1}, domain.M{"b": 2})
	first.Add(And, domain.M{"c": 3})

	second := NewAccumulator()
	second.Add(And, domain.M{"c": 3})
	second.Add(And, domain.M{"b": 2}, domain.M{"a": 1})

	expected := domain.M{"a": 1, "b": 2, "c": 3}
	s.Equal(expected, first.Condition())
	s.Equal(expected, second.Condition())
}

// When two fragments share a key, the later one wins, without dropping the
// other keys of the earlier fragment.
func (s *ConditionTestSuite) TestLastWriteWins() {
	s.a.Add(And, domain.M{"status": "draft", "owner": "x"})
	s.a.Add(And, domain.M{"status": "active"})
	s.Equal(domain.M{"status": "active", "owner": "x"}, s.a.Condition())
}

// Or fragments are rendered under one $or key, in call order, each once.
func (s *ConditionTestSuite) TestOrFragmentsKeepOrder() {
	s.a.Add(Or, domain.M{"a": 1})
	s.a.Add(And, domain.M{"z": true})
	s.a.Add(Or, domain.M{"b": 2}, domain.M{"c": 3})

	s.Equal(domain.M{
		"z":   true,
		"$or": domain.A{domain.M{"a": 1}, domain.M{"b": 2}, domain.M{"c": 3}},
	}, s.a.Condition())
}

// A $or list added as an and fragment is extended by the or fragments instead
// of being replaced.
func (s *ConditionTestSuite) TestOrAppendsToExplicitOr() {
	s.a.Add(And, domain.M{"$or": []any{domain.M{"x": 1}}})
	s.a.Add(Or, domain.M{"y": 2})
	s.Equal(domain.M{
		"$or": domain.A{domain.M{"x": 1}, domain.M{"y": 2}},
	}, s.a.Condition())
}

// Explicit $or lists of any document and list type keep their alternatives,
// and a single document becomes the first one.
func (s *ConditionTestSuite) TestOrAppendsToTypedExplicitOr() {
	testCases := []struct {
		prev any
		want domain.A
	}{
		{
			prev: []map[string]any{{"a": 1}},
			want: domain.A{domain.M{"a": 1}, domain.M{"y": 2}},
		},
		{
			prev: []bson.D{{{Key: "a", Value: 1}}, {{Key: "b", Value: 2}}},
			want: domain.A{domain.M{"a": 1}, domain.M{"b": 2}, domain.M{"y": 2}},
		},
		{
			prev: []domain.M{{"a": 1}},
			want: domain.A{domain.M{"a": 1}, domain.M{"y": 2}},
		},
		{
			prev: bson.D{{Key: "a", Value: 1}},
			want: domain.A{domain.M{"a": 1}, domain.M{"y": 2}},
		},
	}

	for _, tc := range testCases {
		a := NewAccumulator()
		a.Add(And, domain.M{"$or": tc.prev})
		a.Add(Or, domain.M{"y": 2})
		s.Equal(domain.M{"$or": tc.want}, a.Condition(), "%T", tc.prev)
	}
}

// Empty and nil fragments are ignored.
func (s *ConditionTestSuite) TestEmptyFragmentsIgnored() {
	s.a.Add(And, nil, domain.M{})
	s.a.Add(Or, domain.M{})
	s.a.AddPredicates(And, nil)
	s.Zero(s.a.Len())
	s.Equal(domain.M{}, s.a.Condition())
}

// Changing a fragment after adding it, or changing a rendered condition, does
// not change the stored state.
func (s *ConditionTestSuite) TestFragmentsAreNotShared() {
	f := domain.M{"a": domain.M{"$in": []any{1}}}
	s.a.Add(And, f)
	f["a"].(domain.M)["$in"] = []any{2}

	cond := s.a.Condition()
	cond["a"].(domain.M)["$in"].([]any)[0] = 3

	s.Equal(domain.M{"a": domain.M{"$in": []any{1}}}, s.a.Condition())
}

// A clone is independent from its source.
func (s *ConditionTestSuite) TestClone() {
	s.a.Add(And, domain.M{"a": 1})
	s.a.Add(Or, domain.M{"b": 1})

	c := s.a.Clone()
	c.Add(And, domain.M{"a": 2, "c": 3})
	c.Add(Or, domain.M{"d": 4})

	s.Equal(domain.M{"a": 1, "$or": domain.A{domain.M{"b": 1}}}, s.a.Condition())
	s.Equal(domain.M{
		"a":   2,
		"c":   3,
		"$or": domain.A{domain.M{"b": 1}, domain.M{"d": 4}},
	}, c.Condition())
}

// Each predicate variant renders the expected fragment.
func (s *ConditionTestSuite) TestPredicateFragments() {
	testCases := []struct {
		pred     Predicate
		expected domain.M
	}{
		{Equal{Field: "a", Value: 1}, domain.M{"a": 1}},
		{Compare{Field: "a", Op: Gte, Value: 2}, domain.M{"a": domain.M{"$gte": 2}}},
		{In{Field: "t", Values: []string{"x"}}, domain.M{"t": domain.M{"$in": []string{"x"}}}},
		{NotIn{Field: "t", Values: []int{1}}, domain.M{"t": domain.M{"$nin": []int{1}}}},
		{Regex{Field: "n", Pattern: "^a"}, domain.M{"n": domain.M{"$regex": "^a"}}},
		{Regex{Field: "n", Pattern: "a", Options: "i"}, domain.M{"n": domain.M{"$regex": "a", "$options": "i"}}},
		{Raw{"$where": "x"}, domain.M{"$where": "x"}},
		{
			GeoWithin{Field: "loc", Center: Coordinates{Lat: 1, Lng: 2}, RadiusKm: 6371},
			domain.M{"loc": domain.M{"$geoWithin": domain.M{
				"$center": domain.A{domain.A{1.0, 2.0}, 1.0},
			}}},
		},
	}
	for _, tc := range testCases {
		s.Equal(tc.expected, tc.pred.Fragment())
	}
}

// Field map helpers build one predicate per field in field order.
func (s *ConditionTestSuite) TestHelpers() {
	s.Equal([]Predicate{
		Compare{Field: "a", Op: Lt, Value: 1},
		Compare{Field: "b", Op: Lt, Value: 2},
	}, Comparisons(domain.M{"b": 2, "a": 1}, Lt))

	s.Equal([]Predicate{In{Field: "a", Values: []any{1}}}, Memberships(domain.M{"a": []any{1}}))
	s.Equal([]Predicate{NotIn{Field: "a", Values: []any{1}}}, Exclusions(domain.M{"a": []any{1}}))
	s.Empty(Comparisons(domain.M{}, Eq))

	s.Equal([]Predicate{
		Regex{Field: "name", Pattern: `jo\.n`, Options: "i"},
	}, TextLike(map[string]string{"name": "jo.n", "email": ""}))

	s.Equal([]Predicate{
		GeoWithin{Field: "a", Center: Coordinates{Lat: 1, Lng: 1}, RadiusKm: 10},
	}, Near(map[string]Coordinates{"a": {Lat: 1, Lng: 1}}, 10))
}

func (s *ConditionTestSuite) TestModeString() {
	s.Equal("and", And.String())
	s.Equal("or", Or.String())
}

func TestConditionTestSuite(t *testing.T) {
	suite.Run(t, new(ConditionTestSuite))
}
