// Package geo implements the spatial index backing GEO* commands: an
// R-tree for radius queries paired with a tag-keyed hash index, kept in
// lockstep so that every point in one is also in the other.
package geo

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/mmcloughlin/geohash"
)

// pointEpsilon gives every point a non-degenerate bounding box, since
// rtreego rejects zero-length rectangle sides.
const pointEpsilon = 1e-9

const geohashPrecision = 10

// Point is one member of a geo key: a tagged (lat, lng) pair plus its
// derived geohash and an optional attached JSON document.
type Point struct {
	Tag  string          `json:"tag"`
	Lat  float64         `json:"lat"`
	Lng  float64         `json:"lng"`
	Hash string          `json:"hash"`
	Data json.RawMessage `json:"data,omitempty"`
}

// item adapts a Point to rtreego.Spatial. It is a distinct type (rather
// than implementing Spatial on *Point directly) so that Index can hand
// the same pointer it inserted back to Rtree.Delete for removal.
type item struct {
	p *Point
}

func (it *item) Bounds() *rtreego.Rect {
	rect, err := rtreego.NewRect(rtreego.Point{it.p.Lat, it.p.Lng}, []float64{pointEpsilon, pointEpsilon})
	if err != nil {
		// Only possible if pointEpsilon were non-positive, which it never is.
		panic(err)
	}
	return rect
}

// Index is a geo key's value: GEOADD/GEOREM/GEORADIUS all operate on
// one of these.
type Index struct {
	tree  *rtreego.Rtree
	byTag map[string]*item
}

// NewIndex returns an empty geo index.
func NewIndex() *Index {
	return &Index{
		tree:  rtreego.NewTree(2, 5, 20),
		byTag: make(map[string]*item),
	}
}

// Upsert inserts or replaces the point tagged tag, deriving its geohash
// from (lat, lng). Returns true if tag is new.
func (idx *Index) Upsert(tag string, lat, lng float64, data json.RawMessage) bool {
	_, existed := idx.byTag[tag]
	if existed {
		idx.remove(tag)
	}
	p := &Point{
		Tag:  tag,
		Lat:  lat,
		Lng:  lng,
		Hash: geohash.EncodeWithPrecision(lat, lng, geohashPrecision),
		Data: data,
	}
	it := &item{p: p}
	idx.tree.Insert(it)
	idx.byTag[tag] = it
	return !existed
}

// Get returns the point tagged tag, if any.
func (idx *Index) Get(tag string) (*Point, bool) {
	it, ok := idx.byTag[tag]
	if !ok {
		return nil, false
	}
	return it.p, true
}

// Delete removes the point tagged tag. Returns true if it existed.
func (idx *Index) Delete(tag string) bool {
	_, ok := idx.byTag[tag]
	if !ok {
		return false
	}
	idx.remove(tag)
	return true
}

func (idx *Index) remove(tag string) {
	it := idx.byTag[tag]
	idx.tree.Delete(it)
	delete(idx.byTag, tag)
}

// Len reports the number of points in the index.
func (idx *Index) Len() int { return len(idx.byTag) }

// Points returns every point in the index, in tag-sorted order so that
// callers get a deterministic iteration order across replicas.
func (idx *Index) Points() []*Point {
	tags := make([]string, 0, len(idx.byTag))
	for tag := range idx.byTag {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	out := make([]*Point, len(tags))
	for i, tag := range tags {
		out[i] = idx.byTag[tag].p
	}
	return out
}

// Merge unions other into idx: every point in other is upserted into
// idx, overwriting any same-tag point already present. This is the
// geo ⊕ operator from the data engine's merge semantics.
func (idx *Index) Merge(other *Index) {
	if other == nil {
		return
	}
	for _, p := range other.Points() {
		idx.Upsert(p.Tag, p.Lat, p.Lng, p.Data)
	}
}

// Clone returns a deep, independent copy of idx.
func (idx *Index) Clone() *Index {
	out := NewIndex()
	for _, p := range idx.Points() {
		out.Upsert(p.Tag, p.Lat, p.Lng, p.Data)
	}
	return out
}

// Distance is one point's distance from a radius query origin, in
// meters.
type Distance struct {
	Point *Point
	Meters float64
}

// Radius returns every point within radiusMeters of (lat, lng), sorted
// by ascending distance with ties broken by tag.
func (idx *Index) Radius(lat, lng, radiusMeters float64) []Distance {
	// Bound the candidate search with a degree-space bounding box sized
	// generously around the radius, then filter with exact haversine
	// distance. 111_320 is the approximate number of meters per degree
	// of latitude.
	latPad := radiusMeters/111320.0 + 0.001
	lngDivisor := 111320.0 * math.Cos(lat*math.Pi/180)
	if lngDivisor < 1 {
		lngDivisor = 1
	}
	lngPad := radiusMeters/lngDivisor + 0.001

	bb, err := rtreego.NewRect(
		rtreego.Point{lat - latPad, lng - lngPad},
		[]float64{2 * latPad, 2 * lngPad},
	)
	var candidates []rtreego.Spatial
	if err == nil {
		candidates = idx.tree.SearchIntersect(bb)
	} else {
		candidates = make([]rtreego.Spatial, 0, len(idx.byTag))
		for _, it := range idx.byTag {
			candidates = append(candidates, it)
		}
	}

	out := make([]Distance, 0, len(candidates))
	for _, c := range candidates {
		it := c.(*item)
		d := HaversineMeters(lat, lng, it.p.Lat, it.p.Lng)
		if d <= radiusMeters {
			out = append(out, Distance{Point: it.p, Meters: d})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Meters != out[j].Meters {
			return out[i].Meters < out[j].Meters
		}
		return out[i].Point.Tag < out[j].Point.Tag
	})
	return out
}

// indexWire is the JSON-portable representation of an Index, used when
// a geo Value is serialized into a snapshot.
type indexWire struct {
	Points []*Point `json:"points"`
}

func (idx *Index) MarshalJSON() ([]byte, error) {
	return json.Marshal(indexWire{Points: idx.Points()})
}

func (idx *Index) UnmarshalJSON(data []byte) error {
	var w indexWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*idx = *NewIndex()
	for _, p := range w.Points {
		idx.Upsert(p.Tag, p.Lat, p.Lng, p.Data)
	}
	return nil
}
