package engine

import (
	"encoding/json"
	"time"

	"github.com/mambisi/escanor/internal/geo"
	"github.com/mambisi/escanor/internal/util"
)

// GeoItem is one (tag, lat, lng) triple for GEOADD.
type GeoItem struct {
	Tag string
	Lat float64
	Lng float64
}

// GeoAdd upserts every item into the geo index at key via the ⊕
// operator, creating the index if key is absent. Returns the number of
// items submitted (matching the original's unconditional item-count
// reply, regardless of how many were new versus updates).
func (s *Store) GeoAdd(key string, items []GeoItem, now time.Time) (int64, error) {
	next := geo.NewIndex()
	for _, it := range items {
		next.Upsert(it.Tag, it.Lat, it.Lng, nil)
	}
	s.evictIfExpired(key, now)
	s.mu.Lock()
	cur, ok := s.data[key]
	if ok && cur.Kind != KindGeo {
		s.mu.Unlock()
		return 0, ErrWrongType
	}
	merged := Merge(s.data[key], GeoValue(next))
	s.data[key] = merged
	s.mu.Unlock()
	return int64(len(items)), nil
}

func (s *Store) geoIndex(key string, now time.Time) (*geo.Index, bool, error) {
	v, ok := s.Get(key, now)
	if !ok {
		return nil, false, nil
	}
	if v.Kind != KindGeo {
		return nil, true, ErrWrongType
	}
	return v.Geo, true, nil
}

// GeoHash returns the geohash string for each tag, or "" for a tag not
// present in the index.
func (s *Store) GeoHash(key string, tags []string, now time.Time) ([]string, bool, error) {
	idx, ok, err := s.geoIndex(key, now)
	if err != nil || !ok {
		return nil, ok, err
	}
	out := make([]string, len(tags))
	for i, tag := range tags {
		if p, found := idx.Get(tag); found {
			out[i] = p.Hash
		}
	}
	return out, true, nil
}

// GeoPos returns the [lat, lng] pair for each tag as strings, or an
// empty slice for a tag not present.
func (s *Store) GeoPos(key string, tags []string, now time.Time) ([][]string, bool, error) {
	idx, ok, err := s.geoIndex(key, now)
	if err != nil || !ok {
		return nil, ok, err
	}
	out := make([][]string, len(tags))
	for i, tag := range tags {
		if p, found := idx.Get(tag); found {
			out[i] = []string{formatFloat(p.Lat), formatFloat(p.Lng)}
		} else {
			out[i] = []string{}
		}
	}
	return out, true, nil
}

// GeoDist returns the distance between two tagged members in unit.
func (s *Store) GeoDist(key, tagA, tagB string, unit util.Unit, now time.Time) (float64, bool, error) {
	idx, ok, err := s.geoIndex(key, now)
	if err != nil || !ok {
		return 0, ok, err
	}
	a, foundA := idx.Get(tagA)
	if !foundA {
		return 0, true, ErrMemberNotFound
	}
	b, foundB := idx.Get(tagB)
	if !foundB {
		return 0, true, ErrMemberNotFound
	}
	meters := geo.HaversineMeters(a.Lat, a.Lng, b.Lat, b.Lng)
	return util.FromMeters(meters, unit), true, nil
}

// GeoRadiusResult is one reply row for GEORADIUS/GEORADIUSBYMEMBER:
// [tag, geohash, distance].
type GeoRadiusResult struct {
	Tag      string
	Hash     string
	Distance float64
}

// GeoRadius returns every member within radius (in unit) of (lat, lng),
// sorted numerically ascending by distance, ties broken by tag (the
// original's lexicographic string sort on the distance is a redesigned
// fix — see SPEC_FULL.md §5).
func (s *Store) GeoRadius(key string, lat, lng, radius float64, unit util.Unit, now time.Time) ([]GeoRadiusResult, bool, error) {
	idx, ok, err := s.geoIndex(key, now)
	if err != nil || !ok {
		return nil, ok, err
	}
	radiusMeters := util.ToMeters(radius, unit)
	hits := idx.Radius(lat, lng, radiusMeters)
	out := make([]GeoRadiusResult, len(hits))
	for i, h := range hits {
		out[i] = GeoRadiusResult{
			Tag:      h.Point.Tag,
			Hash:     h.Point.Hash,
			Distance: util.FromMeters(h.Meters, unit),
		}
	}
	return out, true, nil
}

// GeoRadiusByMember is GeoRadius centered on an existing member instead
// of an explicit coordinate.
func (s *Store) GeoRadiusByMember(key, tag string, radius float64, unit util.Unit, now time.Time) ([]GeoRadiusResult, bool, error) {
	idx, ok, err := s.geoIndex(key, now)
	if err != nil || !ok {
		return nil, ok, err
	}
	origin, found := idx.Get(tag)
	if !found {
		return nil, true, ErrMemberNotFound
	}
	return s.GeoRadius(key, origin.Lat, origin.Lng, radius, unit, now)
}

// GeoRemove deletes the named tags from the index at key, returning how
// many were actually present.
func (s *Store) GeoRemove(key string, tags []string, now time.Time) (int64, error) {
	s.evictIfExpired(key, now)
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.data[key]
	if !ok {
		return 0, nil
	}
	if cur.Kind != KindGeo {
		return 0, ErrWrongType
	}
	var removed int64
	for _, tag := range tags {
		if cur.Geo.Delete(tag) {
			removed++
		}
	}
	return removed, nil
}

// GeoDel removes the entire geo key. Returns 1 if it existed and held a
// geo index, 0 otherwise.
func (s *Store) GeoDel(key string, now time.Time) (int64, error) {
	v, ok := s.Get(key, now)
	if !ok {
		return 0, nil
	}
	if v.Kind != KindGeo {
		return 0, ErrWrongType
	}
	s.Del(key)
	return 1, nil
}

// GeoJSON renders the named tags (all of them, if tags is empty) from
// the geo index at key as a GeoJSON FeatureCollection.
func (s *Store) GeoJSON(key string, tags []string, now time.Time) (json.RawMessage, bool, error) {
	idx, ok, err := s.geoIndex(key, now)
	if err != nil || !ok {
		return nil, ok, err
	}
	subset := idx
	if len(tags) > 0 {
		subset = geo.NewIndex()
		for _, tag := range tags {
			if p, found := idx.Get(tag); found {
				subset.Upsert(p.Tag, p.Lat, p.Lng, p.Data)
			}
		}
	}
	out, err := json.Marshal(subset.ToGeoJSON())
	if err != nil {
		return nil, true, err
	}
	return out, true, nil
}
