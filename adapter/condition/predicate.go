package condition

import (
	"maps"
	"regexp"
	"slices"

	"github.com/vinicius-lino-figueiredo/gequery/domain"
)

// EarthRadiusKm is the mean radius of the Earth, used to convert distances
// into radians for $center.
const EarthRadiusKm = 6371.0

// Comparison is a range or equality operator.
type Comparison string

const (
	// Gte matches values greater than or equal to the given one.
	Gte Comparison = "$gte"
	// Gt matches values greater than the given one.
	Gt Comparison = "$gt"
	// Lt matches values lower than the given one.
	Lt Comparison = "$lt"
	// Lte matches values lower than or equal to the given one.
	Lte Comparison = "$lte"
	// Eq matches values equal to the given one.
	Eq Comparison = "$eq"
)

// Coordinates is a point used by geo predicates.
type Coordinates struct {
	Lat float64
	Lng float64
}

// Predicate is a typed filter fragment. Each implementation renders exactly
// one fragment.
type Predicate interface {
	Fragment() domain.M
}

// Equal matches documents where Field equals Value.
type Equal struct {
	Field string
	Value any
}

// Fragment implements [Predicate].
func (e Equal) Fragment() domain.M {
	return domain.M{e.Field: e.Value}
}

// Compare matches documents where Field relates to Value through Op.
type Compare struct {
	Field string
	Op    Comparison
	Value any
}

// Fragment implements [Predicate].
func (c Compare) Fragment() domain.M {
	return domain.M{c.Field: domain.M{string(c.Op): c.Value}}
}

// In matches documents where Field is one of Values, or, for list fields,
// contains one of them.
type In struct {
	Field  string
	Values any
}

// Fragment implements [Predicate].
func (i In) Fragment() domain.M {
	return domain.M{i.Field: domain.M{"$in": i.Values}}
}

// NotIn matches documents where Field is none of Values.
type NotIn struct {
	Field  string
	Values any
}

// Fragment implements [Predicate].
func (n NotIn) Fragment() domain.M {
	return domain.M{n.Field: domain.M{"$nin": n.Values}}
}

// Regex matches string fields against Pattern.
type Regex struct {
	Field   string
	Pattern string
	Options string
}

// Fragment implements [Predicate].
func (r Regex) Fragment() domain.M {
	expr := domain.M{"$regex": r.Pattern}
	if r.Options != "" {
		expr["$options"] = r.Options
	}
	return domain.M{r.Field: expr}
}

// GeoWithin matches points inside the circle centered at Center with a
// radius of RadiusKm kilometers.
type GeoWithin struct {
	Field    string
	Center   Coordinates
	RadiusKm float64
}

// Fragment implements [Predicate].
func (g GeoWithin) Fragment() domain.M {
	return domain.M{g.Field: domain.M{
		"$geoWithin": domain.M{
			"$center": domain.A{
				domain.A{g.Center.Lat, g.Center.Lng},
				g.RadiusKm / EarthRadiusKm,
			},
		},
	}}
}

// Raw passes a caller built fragment through unchanged.
type Raw domain.M

// Fragment implements [Predicate].
func (r Raw) Fragment() domain.M {
	return domain.M(r)
}

// Comparisons returns one [Compare] per field, in field order.
func Comparisons(fields domain.M, op Comparison) []Predicate {
	preds := make([]Predicate, 0, len(fields))
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		preds = append(preds, Compare{Field: k, Op: op, Value: fields[k]})
	}
	return preds
}

// Memberships returns one [In] per field, in field order.
func Memberships(fields domain.M) []Predicate {
	preds := make([]Predicate, 0, len(fields))
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		preds = append(preds, In{Field: k, Values: fields[k]})
	}
	return preds
}

// Exclusions returns one [NotIn] per field, in field order.
func Exclusions(fields domain.M) []Predicate {
	preds := make([]Predicate, 0, len(fields))
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		preds = append(preds, NotIn{Field: k, Values: fields[k]})
	}
	return preds
}

// TextLike returns one case insensitive substring [Regex] per field. The text
// is matched literally, regular expression characters included. Fields with
// empty text are skipped.
func TextLike(fields map[string]string) []Predicate {
	preds := make([]Predicate, 0, len(fields))
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		if fields[k] == "" {
			continue
		}
		preds = append(preds, Regex{
			Field:   k,
			Pattern: regexp.QuoteMeta(fields[k]),
			Options: "i",
		})
	}
	return preds
}

// Near returns one [GeoWithin] per field, in field order.
func Near(fields map[string]Coordinates, radiusKm float64) []Predicate {
	preds := make([]Predicate, 0, len(fields))
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		preds = append(preds, GeoWithin{Field: k, Center: fields[k], RadiusKm: radiusKm})
	}
	return preds
}
