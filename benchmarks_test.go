package gequery_test

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/vinicius-lino-figueiredo/gequery"
	"github.com/vinicius-lino-figueiredo/gequery/adapter/memdriver"
)

type part struct {
	ID   int      `bson:"_id"`
	Code int      `bson:"code"`
	Tags []string `bson:"tags"`
}

func seedParts(b *testing.B, size int) gequery.Collection {
	ctx := context.Background()
	coll := memdriver.NewDatabase().Collection("parts")
	for n := range size {
		if _, err := coll.Create(ctx, part{ID: n, Code: n % 100, Tags: []string{"a"}}); err != nil {
			b.Fatal(err)
		}
	}
	return coll
}

func BenchmarkCondition(b *testing.B) {
	coll := memdriver.NewDatabase().Collection("parts")

	for b.Loop() {
		_ = gequery.New[part](coll).
			AndWhere(M{"code": 1}, M{"tags": "a"}).
			OrWhere(M{"code": 2}, M{"code": 3}).
			WhereDate(M{"created": 10}, gequery.Gte, gequery.And).
			WhereTextLike(map[string]string{"name": "bolt"}, gequery.Or).
			Condition()
	}
}

func BenchmarkClone(b *testing.B) {
	coll := memdriver.NewDatabase().Collection("parts")
	builder := gequery.New[part](coll).
		AndWhere(M{"code": 1}).
		Set(M{"tags": gequery.A{"b"}}).
		Project(M{"code": 1})

	for b.Loop() {
		_ = builder.Clone()
	}
}

func BenchmarkCreate(b *testing.B) {
	ctx := context.Background()
	coll := memdriver.NewDatabase().Collection("parts")

	for b.Loop() {
		if _, err := coll.Create(ctx, M{"code": 1}); err != nil {
			b.FailNow()
		}
	}
}

func BenchmarkFind(b *testing.B) {
	ctx := context.Background()

	sizes := [...]int{1, 10, 100, 1_000, 10_000}

	for _, size := range sizes {
		b.Run(fmt.Sprintf("db=%d", size), func(b *testing.B) {
			coll := seedParts(b, size)

			b.Run("ByID", func(b *testing.B) {
				for b.Loop() {
					_, err := gequery.New[part](coll).WhiteListIDs(rand.Intn(size)).FindMany(ctx)
					if err != nil {
						b.FailNow()
					}
				}
			})

			b.Run("Scan", func(b *testing.B) {
				for b.Loop() {
					_, err := gequery.New[part](coll).AndWhere(M{"code": rand.Intn(100)}).FindMany(ctx)
					if err != nil {
						b.FailNow()
					}
				}
			})

			b.Run("Page", func(b *testing.B) {
				for b.Loop() {
					_, err := gequery.New[part](coll).
						Sort(gequery.D{{Key: "code", Value: -1}}).
						Limit(10).
						Query(ctx)
					if err != nil {
						b.FailNow()
					}
				}
			})
		})
	}
}

func BenchmarkUpdateMany(b *testing.B) {
	ctx := context.Background()
	coll := seedParts(b, 1_000)

	for b.Loop() {
		_, err := gequery.New[part](coll).
			AndWhere(M{"code": rand.Intn(100)}).
			Inc(M{"code": 100}).
			UpdateMany(ctx)
		if err != nil {
			b.FailNow()
		}
	}
}

func BenchmarkSaveFile(b *testing.B) {
	ctx := context.Background()
	db := memdriver.NewDatabase()
	for n := range 1_000 {
		_, _ = db.Collection("parts").Create(ctx, part{ID: n, Code: n})
	}
	file := filepath.Join(b.TempDir(), "parts.jsonl")

	for b.Loop() {
		if err := db.SaveFile(ctx, file); err != nil {
			b.FailNow()
		}
	}
}
