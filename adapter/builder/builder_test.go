package builder

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vinicius-lino-figueiredo/gequery/adapter/condition"
	"github.com/vinicius-lino-figueiredo/gequery/adapter/update"
	"github.com/vinicius-lino-figueiredo/gequery/domain"
)

type collectionMock struct{ mock.Mock }

// Find implements [domain.Collection].
func (c *collectionMock) Find(ctx context.Context, cond domain.M, options ...domain.FindOption) ([]domain.M, error) {
	var opts domain.FindOptions
	for _, opt := range options {
		opt(&opts)
	}
	call := c.Called(ctx, cond, opts)
	return call.Get(0).([]domain.M), call.Error(1)
}

// FindOne implements [domain.Collection].
func (c *collectionMock) FindOne(ctx context.Context, cond domain.M, options ...domain.FindOption) (domain.M, error) {
	var opts domain.FindOptions
	for _, opt := range options {
		opt(&opts)
	}
	call := c.Called(ctx, cond, opts)
	return call.Get(0).(domain.M), call.Error(1)
}

// Paginate implements [domain.Collection].
func (c *collectionMock) Paginate(ctx context.Context, cond domain.M, options ...domain.PaginateOption) (*domain.PageResult, error) {
	var opts domain.PaginateOptions
	for _, opt := range options {
		opt(&opts)
	}
	call := c.Called(ctx, cond, opts)
	return call.Get(0).(*domain.PageResult), call.Error(1)
}

// Create implements [domain.Collection].
func (c *collectionMock) Create(ctx context.Context, data any) (domain.M, error) {
	call := c.Called(ctx, data)
	return call.Get(0).(domain.M), call.Error(1)
}

// UpdateOne implements [domain.Collection].
func (c *collectionMock) UpdateOne(ctx context.Context, cond domain.M, upd domain.M, options ...domain.UpdateOption) (*domain.UpdateResult, error) {
	var opts domain.UpdateOptions
	for _, opt := range options {
		opt(&opts)
	}
	call := c.Called(ctx, cond, upd, opts)
	return call.Get(0).(*domain.UpdateResult), call.Error(1)
}

// UpdateMany implements [domain.Collection].
func (c *collectionMock) UpdateMany(ctx context.Context, cond domain.M, upd domain.M, options ...domain.UpdateOption) (*domain.UpdateResult, error) {
	var opts domain.UpdateOptions
	for _, opt := range options {
		opt(&opts)
	}
	call := c.Called(ctx, cond, upd, opts)
	return call.Get(0).(*domain.UpdateResult), call.Error(1)
}

// DeleteOne implements [domain.Collection].
func (c *collectionMock) DeleteOne(ctx context.Context, cond domain.M) (*domain.DeleteResult, error) {
	call := c.Called(ctx, cond)
	return call.Get(0).(*domain.DeleteResult), call.Error(1)
}

// DeleteMany implements [domain.Collection].
func (c *collectionMock) DeleteMany(ctx context.Context, cond domain.M) (*domain.DeleteResult, error) {
	call := c.Called(ctx, cond)
	return call.Get(0).(*domain.DeleteResult), call.Error(1)
}

type idConverterMock struct{ mock.Mock }

// ToID implements [domain.IDConverter].
func (i *idConverterMock) ToID(v any) (any, error) {
	call := i.Called(v)
	return call.Get(0), call.Error(1)
}

type user struct {
	ID     string `bson:"_id"`
	Name   string `bson:"name"`
	Status string `bson:"status"`
}

type BuilderTestSuite struct {
	suite.Suite
	coll *collectionMock
	b    *Builder[user]
	ctx  context.Context
}

func (s *BuilderTestSuite) SetupTest() {
	s.coll = new(collectionMock)
	s.b = New[user](s.coll)
	s.ctx = context.Background()
}

// And fragments on disjoint fields are all present, whatever the order.
func (s *BuilderTestSuite) TestAndWhereDisjoint() {
	a := New[user](s.coll).AndWhere(domain.M{"a": 1}).AndWhere(domain.M{"b": 2})
	b := New[user](s.coll).AndWhere(domain.M{"b": 2}).AndWhere(domain.M{"a": 1})
	s.Equal(domain.M{"a": 1, "b": 2}, a.Condition())
	s.Equal(a.Condition(), b.Condition())
}

// The later and fragment wins for the same field.
func (s *BuilderTestSuite) TestAndWhereSameField() {
	s.b.AndWhere(domain.M{"a": 1}).AndWhere(domain.M{"a": 2})
	s.Equal(domain.M{"a": 2}, s.b.Condition())
}

// Or fragments are listed under $or in call order. Where with Or mode behaves
// like OrWhere.
func (s *BuilderTestSuite) TestOrWhere() {
	s.b.OrWhere(domain.M{"a": 1}).
		Where(domain.M{"b": 2}, condition.Or).
		OrWhere(domain.M{"c": 3}, domain.M{"d": 4}).
		Where(domain.M{"e": 5}, condition.And)

	s.Equal(domain.M{
		"e": 5,
		"$or": domain.A{
			domain.M{"a": 1}, domain.M{"b": 2}, domain.M{"c": 3}, domain.M{"d": 4},
		},
	}, s.b.Condition())
}

// The field map helpers build the expected predicates and route them through
// the chosen mode. Empty maps add nothing.
func (s *BuilderTestSuite) TestWhereHelpers() {
	s.b.WhereDate(domain.M{"createdAt": 10}, condition.Gte, condition.And).
		WhereDate(domain.M{"deletedAt": 5}, condition.Lt, condition.Or).
		WhereArrayIncludes(domain.M{"tags": []string{"a", "b"}}, condition.And).
		WhereTextLike(map[string]string{"name": "Jo", "email": ""}, condition.And).
		NearCoordinates(map[string]condition.Coordinates{"loc": {Lat: 1, Lng: 2}}, 6371).
		ValueNotMatches(domain.M{"status": []string{"banned"}}).
		WhereDate(domain.M{}, condition.Eq, condition.And).
		WhereTextLike(map[string]string{}, condition.Or)

	s.Equal(domain.M{
		"createdAt": domain.M{"$gte": 10},
		"tags":      domain.M{"$in": []string{"a", "b"}},
		"name":      domain.M{"$regex": "Jo", "$options": "i"},
		"loc": domain.M{"$geoWithin": domain.M{
			"$center": domain.A{domain.A{1.0, 2.0}, 1.0},
		}},
		"status": domain.M{"$nin": []string{"banned"}},
		"$or":    domain.A{domain.M{"deletedAt": domain.M{"$lt": 5}}},
	}, s.b.Condition())
}

// An empty white list adds no restriction, a non empty one restricts _id to
// exactly the given set.
func (s *BuilderTestSuite) TestWhiteListIDs() {
	s.b.WhiteListIDs()
	s.Equal(domain.M{}, s.b.Condition())

	s.b.WhiteListIDs("x", "y")
	s.Equal(domain.M{"_id": domain.M{"$in": domain.A{"x", "y"}}}, s.b.Condition())
}

// WhiteList converts the ids it can and keeps the others as they are.
func (s *BuilderTestSuite) TestWhiteList() {
	id := primitive.NewObjectID()
	s.b.WhiteList()
	s.Equal(domain.M{}, s.b.Condition())

	s.b.WhiteList(id.Hex(), "legacy")
	s.Equal(domain.M{"_id": domain.M{"$in": domain.A{id, "legacy"}}}, s.b.Condition())
}

// WithID adds the converted id to the condition and keeps it as target.
func (s *BuilderTestSuite) TestWithID() {
	id := primitive.NewObjectID()
	s.b.WithID(id.Hex())
	s.Equal(domain.M{"_id": id}, s.b.Condition())

	got, ok := s.b.ID()
	s.True(ok)
	s.Equal(id, got)
	s.NoError(s.b.Err())
}

// An id that cannot be converted is recorded as an error and returned by the
// terminal operations, without calling the collection.
func (s *BuilderTestSuite) TestWithInvalidID() {
	s.b.WithID("not-an-id")
	s.ErrorAs(s.b.Err(), &domain.ErrInvalidID{})

	_, err := s.b.FindOne(s.ctx)
	s.ErrorIs(err, s.b.Err())
	_, err = s.b.Patch(s.ctx)
	s.ErrorIs(err, s.b.Err())
	_, err = s.b.DeleteMany(s.ctx)
	s.ErrorIs(err, s.b.Err())
	s.coll.AssertNotCalled(s.T(), "FindOne", mock.Anything, mock.Anything, mock.Anything)
	s.coll.AssertNotCalled(s.T(), "UpdateOne", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// The configured converter is used for ids.
func (s *BuilderTestSuite) TestCustomIDConverter() {
	conv := new(idConverterMock)
	conv.On("ToID", "7").Return(7, nil).Once()
	b := New[user](s.coll, WithIDConverter(conv)).WithID("7")
	s.Equal(domain.M{"_id": 7}, b.Condition())
	conv.AssertExpectations(s.T())
}

// Updates are grouped by operator, last write wins per field.
func (s *BuilderTestSuite) TestUpdates() {
	s.b.Set(domain.M{"name": "a", "age": 1}).
		Set(domain.M{"name": "b"}).
		Unset(domain.M{"tmp": ""}).
		AddToSet(domain.M{"tags": "x"}).
		Pull(domain.M{"tags": "y"}).
		Inc(domain.M{"visits": 1}).
		SetCurrentDateOn(map[string]update.DateType{"seenAt": update.Timestamp})

	s.Equal(domain.M{
		"$set":         domain.M{"name": "b", "age": 1},
		"$unset":       domain.M{"tmp": ""},
		"$addToSet":    domain.M{"tags": "x"},
		"$pull":        domain.M{"tags": "y"},
		"$inc":         domain.M{"visits": 1},
		"$currentDate": domain.M{"seenAt": domain.M{"$type": "timestamp"}},
	}, s.b.Updates())
	s.Equal(s.b.Updates(), s.b.Modified())
}

// A pushed value is wrapped in $each, unless each is set.
func (s *BuilderTestSuite) TestPush() {
	s.b.Push(domain.M{"a": 1})
	s.Equal(domain.M{"$each": domain.A{1}}, s.b.Updates()["$push"].(domain.M)["a"])

	s.b.Push(domain.M{"a": domain.A{1, 2}}, domain.WithPushEach(true))
	s.Equal(domain.M{"$each": domain.A{1, 2}}, s.b.Updates()["$push"].(domain.M)["a"])

	s.b.Push(domain.M{"b": 1}, domain.WithPushSort(domain.D{{Key: "score", Value: -1}}))
	s.Equal(domain.M{
		"$each": domain.A{1},
		"$sort": domain.D{{Key: "score", Value: -1}},
	}, s.b.Updates()["$push"].(domain.M)["b"])
}

// Array element modifiers rewrite the path and register array filters.
func (s *BuilderTestSuite) TestModifyArrayElements() {
	s.b.ModifyArrayElements(map[string]update.ArrayElement{
		"tags":   {Value: "x", Where: domain.M{"elem": domain.M{"$eq": "y"}}},
		"scores": {Value: 0},
	}).ModifyArrayElement(domain.M{"items": "first"})

	s.Equal(domain.M{"$set": domain.M{
		"tags.$[elem]": "x",
		"scores.$[]":   0,
		"items.$":      "first",
	}}, s.b.Updates())
	s.Equal(domain.M{
		"arrayFilters": domain.A{domain.M{"elem": domain.M{"$eq": "y"}}},
	}, s.b.UpdateFilters())
}

// Filters changing between list and document make the builder fail.
func (s *BuilderTestSuite) TestUpdateFilterKindChange() {
	s.b.AddUpdateFilter(domain.M{"arrayFilters": domain.M{"a": 1}}).
		AddUpdateFilter(domain.M{"arrayFilters": domain.A{domain.M{"b": 1}}})

	_, err := s.b.UpdateMany(s.ctx)
	s.ErrorAs(err, &domain.ErrUpdateFilterType{})
	s.coll.AssertNotCalled(s.T(), "UpdateMany", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// The snapshot holds the merged state and leaves unset parts nil.
func (s *BuilderTestSuite) TestSnapshot() {
	s.b.Where(domain.M{"status": "active"}, condition.And).
		Sort(domain.D{{Key: "createdAt", Value: -1}}).
		Skip(10).
		Limit(5)

	skip, limit := int64(10), int64(5)
	s.Equal(domain.Snapshot{
		Condition: domain.M{"status": "active"},
		Sort:      domain.D{{Key: "createdAt", Value: -1}},
		Skip:      &skip,
		Limit:     &limit,
	}, s.b.Snapshot())
}

// Projections merge field by field, nil ones are ignored. Dotted populations
// are expanded.
func (s *BuilderTestSuite) TestProjectAndPopulate() {
	s.b.Project(domain.M{"a": 1, "b": 1}, nil).
		Project(domain.M{"b": 0}).
		Populate("author.company").
		PopulateWith().
		PopulateFile("avatar", "filename")

	snap := s.b.Snapshot()
	s.Equal(domain.M{"a": 1, "b": 0}, snap.Projection)
	s.Equal([]domain.Population{
		{Path: "author", Populate: &domain.Population{Path: "company"}},
		{Path: "avatar", Model: FilesModel, Select: "filename"},
	}, snap.Populate)

	s.Nil(New[user](s.coll).Project(nil).Snapshot().Projection)
}

// A clone shares the collection but not the accumulated state. Modifiers are
// applied to the clone only.
func (s *BuilderTestSuite) TestClone() {
	s.b.AndWhere(domain.M{"a": 1}).Set(domain.M{"x": 1}).Project(domain.M{"a": 1}).Skip(1)

	c := s.b.Clone(func(b *Builder[user]) {
		b.AndWhere(domain.M{"a": 2})
	})
	c.OrWhere(domain.M{"b": 1}).Set(domain.M{"x": 2}).Project(domain.M{"c": 1}).Skip(2)

	s.Same(s.b.Model(), c.Model())
	s.Equal(domain.M{"a": 1}, s.b.Condition())
	s.Equal(domain.M{"a": 2, "$or": domain.A{domain.M{"b": 1}}}, c.Condition())
	s.Equal(domain.M{"$set": domain.M{"x": 1}}, s.b.Updates())
	s.Equal(domain.M{"a": 1}, s.b.Snapshot().Projection)
	s.Equal(int64(1), *s.b.Snapshot().Skip)
	s.Equal(int64(2), *c.Snapshot().Skip)
}

// Page indexes are computed from skip, limit and the total.
func (s *BuilderTestSuite) TestQueryPageMath() {
	s.coll.On("Paginate", s.ctx, domain.M{"status": "active"}, domain.PaginateOptions{
		Offset:     40,
		Limit:      20,
		Pagination: true,
	}).Return(&domain.PageResult{
		TotalDocs: 47,
		Docs:      []domain.M{{"_id": "1", "name": "a", "status": "active"}},
	}, nil).Once()

	page, err := s.b.AndWhere(domain.M{"status": "active"}).Skip(40).Limit(20).Query(s.ctx)
	s.NoError(err)
	s.Equal(&domain.Page[user]{
		Total:            47,
		CurrentPageIndex: 2,
		MaxPageIndex:     2,
		Results:          []user{{ID: "1", Name: "a", Status: "active"}},
	}, page)
	s.coll.AssertExpectations(s.T())
}

// Without skip and limit, the first page of the default size is read.
func (s *BuilderTestSuite) TestQueryDefaults() {
	s.coll.On("Paginate", s.ctx, domain.M{}, domain.PaginateOptions{
		Limit:      20,
		Pagination: true,
	}).Return(&domain.PageResult{TotalDocs: 0}, nil).Once()

	page, err := s.b.Paginate(s.ctx)
	s.NoError(err)
	s.Equal(int64(0), page.CurrentPageIndex)
	s.Equal(int64(-1), page.MaxPageIndex)
	s.Empty(page.Results)

	s.coll.On("Paginate", s.ctx, domain.M{}, domain.PaginateOptions{
		Limit:      5,
		Pagination: false,
	}).Return(&domain.PageResult{TotalDocs: 11}, nil).Once()

	page, err = New[user](s.coll, WithDefaultLimit(5)).Query(s.ctx, domain.WithPagination(false))
	s.NoError(err)
	s.Equal(int64(2), page.MaxPageIndex)
	s.coll.AssertExpectations(s.T())
}

// Offset and limit given to Query replace the accumulated ones, and the page
// indexes describe the page the driver read.
func (s *BuilderTestSuite) TestQueryOptionsOverride() {
	s.coll.On("Paginate", s.ctx, domain.M{}, domain.PaginateOptions{
		Offset:     40,
		Limit:      5,
		Pagination: true,
	}).Return(&domain.PageResult{TotalDocs: 47}, nil).Once()

	page, err := s.b.Skip(10).Limit(20).Query(s.ctx,
		domain.WithPaginateOffset(40),
		domain.WithPaginateLimit(5),
	)
	s.NoError(err)
	s.Equal(int64(8), page.CurrentPageIndex)
	s.Equal(int64(9), page.MaxPageIndex)

	// A non positive limit falls back to the default one.
	s.coll.On("Paginate", s.ctx, domain.M{}, domain.PaginateOptions{
		Offset:     40,
		Limit:      20,
		Pagination: true,
	}).Return(&domain.PageResult{TotalDocs: 47}, nil).Once()

	page, err = New[user](s.coll).Query(s.ctx,
		domain.WithPaginateOffset(40),
		domain.WithPaginateLimit(0),
	)
	s.NoError(err)
	s.Equal(int64(2), page.CurrentPageIndex)
	s.Equal(int64(2), page.MaxPageIndex)
	s.coll.AssertExpectations(s.T())
}

// Driver errors are returned unchanged.
func (s *BuilderTestSuite) TestQueryDriverError() {
	errDriver := errors.New("driver error")
	s.coll.On("Paginate", s.ctx, domain.M{}, mock.Anything).
		Return((*domain.PageResult)(nil), errDriver).Once()

	_, err := s.b.Query(s.ctx)
	s.ErrorIs(err, errDriver)
}

// FindOne and FindMany only send skip and limit when they were set.
func (s *BuilderTestSuite) TestFind() {
	proj := domain.M{"name": 1}
	sort := domain.D{{Key: "name", Value: 1}}
	s.b.Project(proj).Sort(sort)

	s.coll.On("FindOne", s.ctx, domain.M{}, domain.FindOptions{Projection: proj, Sort: sort}).
		Return(domain.M{"_id": "1", "name": "a"}, nil).Once()
	one, err := s.b.FindOne(s.ctx)
	s.NoError(err)
	s.Equal(&user{ID: "1", Name: "a"}, one)

	s.coll.On("Find", s.ctx, domain.M{}, domain.FindOptions{Projection: proj, Sort: sort, Skip: 2, Limit: 3}).
		Return([]domain.M{{"_id": "1"}, {"_id": "2"}}, nil).Once()
	many, err := s.b.Skip(2).Limit(3).FindMany(s.ctx)
	s.NoError(err)
	s.Equal([]user{{ID: "1"}, {ID: "2"}}, many)

	s.coll.AssertExpectations(s.T())
}

// Not finding a document is reported by the collection with ErrNotFound.
func (s *BuilderTestSuite) TestFindOneNotFound() {
	s.coll.On("FindOne", s.ctx, domain.M{}, mock.Anything).
		Return(domain.M(nil), domain.ErrNotFound).Once()
	res, err := s.b.FindOne(s.ctx)
	s.ErrorIs(err, domain.ErrNotFound)
	s.Nil(res)
}

func (s *BuilderTestSuite) TestCreate() {
	data := user{Name: "a"}
	s.coll.On("Create", s.ctx, data).Return(domain.M{"_id": "1", "name": "a"}, nil).Once()
	res, err := s.b.Create(s.ctx, data)
	s.NoError(err)
	s.Equal(&user{ID: "1", Name: "a"}, res)
}

// Updates send the merged condition, the merged update and the array filters.
func (s *BuilderTestSuite) TestUpdate() {
	s.b.AndWhere(domain.M{"status": "active"}).
		ModifyArrayElements(map[string]update.ArrayElement{
			"tags": {Value: "x", Where: domain.M{"elem": "y"}},
		}).
		AddUpdateFilter(domain.M{"upsert": true})

	upd := domain.M{"$set": domain.M{"tags.$[elem]": "x"}}
	opts := domain.UpdateOptions{
		ArrayFilters: []any{domain.M{"elem": "y"}},
		Upsert:       true,
	}
	s.coll.On("UpdateOne", s.ctx, domain.M{"status": "active"}, upd, opts).
		Return(&domain.UpdateResult{MatchedCount: 1}, nil).Once()
	s.coll.On("UpdateMany", s.ctx, domain.M{"status": "active"}, upd, opts).
		Return(&domain.UpdateResult{MatchedCount: 3}, nil).Once()

	res, err := s.b.UpdateOne(s.ctx)
	s.NoError(err)
	s.Equal(int64(1), res.MatchedCount)

	res, err = s.b.UpdateMany(s.ctx)
	s.NoError(err)
	s.Equal(int64(3), res.MatchedCount)
	s.coll.AssertExpectations(s.T())
}

func (s *BuilderTestSuite) TestDelete() {
	s.coll.On("DeleteOne", s.ctx, domain.M{"a": 1}).Return(&domain.DeleteResult{DeletedCount: 1}, nil).Once()
	s.coll.On("DeleteMany", s.ctx, domain.M{"a": 1}).Return(&domain.DeleteResult{DeletedCount: 4}, nil).Once()

	s.b.AndWhere(domain.M{"a": 1})
	res, err := s.b.DeleteOne(s.ctx)
	s.NoError(err)
	s.Equal(int64(1), res.DeletedCount)

	res, err = s.b.DeleteMany(s.ctx)
	s.NoError(err)
	s.Equal(int64(4), res.DeletedCount)
}

// Patch requires an id.
func (s *BuilderTestSuite) TestPatchWithoutID() {
	ok, err := s.b.Set(domain.M{"a": 1}).Patch(s.ctx)
	s.ErrorIs(err, domain.ErrMissingID)
	s.False(ok)
	s.coll.AssertNotCalled(s.T(), "UpdateOne", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// Patch updates the target document and reports whether it matched.
func (s *BuilderTestSuite) TestPatch() {
	id := primitive.NewObjectID()
	s.coll.On("UpdateOne", s.ctx, domain.M{"_id": id}, domain.M{"$set": domain.M{"a": 1}}, domain.UpdateOptions{}).
		Return(&domain.UpdateResult{MatchedCount: 0}, nil).Once()

	ok, err := s.b.WithID(id).Set(domain.M{"a": 1}).Patch(s.ctx)
	s.NoError(err)
	s.False(ok)
}

func TestBuilderTestSuite(t *testing.T) {
	suite.Run(t, new(BuilderTestSuite))
}
