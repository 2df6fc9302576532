package command

import (
	"time"

	"github.com/mambisi/escanor/internal/engine"
	"github.com/mambisi/escanor/internal/resp"
	"github.com/mambisi/escanor/internal/util"
)

// Order is GEORADIUS/GEORADIUSBYMEMBER's optional sort direction.
// Unspecified leaves the engine's natural ascending-distance order
// (see SPEC_FULL.md §5 for why this is always numeric, not the original's
// lexicographic string sort).
type Order int

const (
	OrderUnspecified Order = iota
	OrderAsc
	OrderDesc
)

func applyOrder(rows []engine.GeoRadiusResult, order Order) {
	if order != OrderDesc {
		return
	}
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
}

func geoRadiusFrame(rows []engine.GeoRadiusResult) resp.Frame {
	items := make([]resp.Frame, len(rows))
	for i, r := range rows {
		items[i] = resp.StrArr([]string{r.Tag, r.Hash, formatFloat(r.Distance)})
	}
	return resp.Arr(items)
}

// GeoAddCmd upserts (Lat, Lng, Tag) triples into the geo index at Key.
type GeoAddCmd struct {
	Key   string
	Items []engine.GeoItem
}

func (GeoAddCmd) Name() string  { return "GEOADD" }
func (GeoAddCmd) IsWrite() bool { return true }

func (c *GeoAddCmd) Apply(eng *engine.Store, _ *Session, now time.Time) resp.Frame {
	n, err := eng.GeoAdd(c.Key, c.Items, now)
	if err != nil {
		return resp.Err("ERR Invalid key for data type")
	}
	return resp.Int(n)
}

// GeoHashCmd returns each tag's geohash, "" if absent.
type GeoHashCmd struct {
	Key  string
	Tags []string
}

func (GeoHashCmd) Name() string  { return "GEOHASH" }
func (GeoHashCmd) IsWrite() bool { return false }

func (c *GeoHashCmd) Apply(eng *engine.Store, _ *Session, now time.Time) resp.Frame {
	hashes, found, err := eng.GeoHash(c.Key, c.Tags, now)
	if err != nil || !found {
		return resp.Err("ERR")
	}
	return resp.StrArr(hashes)
}

// GeoPosCmd returns each tag's [lat, lng] pair, [] if absent.
type GeoPosCmd struct {
	Key  string
	Tags []string
}

func (GeoPosCmd) Name() string  { return "GEOPOS" }
func (GeoPosCmd) IsWrite() bool { return false }

func (c *GeoPosCmd) Apply(eng *engine.Store, _ *Session, now time.Time) resp.Frame {
	pairs, found, err := eng.GeoPos(c.Key, c.Tags, now)
	if err != nil || !found {
		return resp.Err("ERR Invalid key for data type")
	}
	items := make([]resp.Frame, len(pairs))
	for i, p := range pairs {
		items[i] = resp.StrArr(p)
	}
	return resp.Arr(items)
}

// GeoDistCmd returns the distance between MemberA and MemberB in Unit.
type GeoDistCmd struct {
	Key             string
	MemberA, MemberB string
	Unit            util.Unit
}

func (GeoDistCmd) Name() string  { return "GEODIST" }
func (GeoDistCmd) IsWrite() bool { return false }

func (c *GeoDistCmd) Apply(eng *engine.Store, _ *Session, now time.Time) resp.Frame {
	dist, found, err := eng.GeoDist(c.Key, c.MemberA, c.MemberB, c.Unit, now)
	if err == engine.ErrMemberNotFound {
		return resp.Err("ERR member not found")
	}
	if err != nil || !found {
		return resp.Err("ERR")
	}
	return resp.BulkStr(formatFloat(dist))
}

// GeoRadiusCmd returns every member within Radius Unit of (Lat, Lng).
type GeoRadiusCmd struct {
	Key         string
	Lat, Lng    float64
	Radius      float64
	Unit        util.Unit
	Order       Order
}

func (GeoRadiusCmd) Name() string  { return "GEORADIUS" }
func (GeoRadiusCmd) IsWrite() bool { return false }

func (c *GeoRadiusCmd) Apply(eng *engine.Store, _ *Session, now time.Time) resp.Frame {
	rows, found, err := eng.GeoRadius(c.Key, c.Lat, c.Lng, c.Radius, c.Unit, now)
	if err != nil || !found {
		return resp.Err("ERR Invalid key for data type")
	}
	applyOrder(rows, c.Order)
	return geoRadiusFrame(rows)
}

// GeoRadiusByMemberCmd is GeoRadiusCmd centered on an existing member.
type GeoRadiusByMemberCmd struct {
	Key    string
	Member string
	Radius float64
	Unit   util.Unit
	Order  Order
}

func (GeoRadiusByMemberCmd) Name() string  { return "GEORADIUSBYMEMBER" }
func (GeoRadiusByMemberCmd) IsWrite() bool { return false }

func (c *GeoRadiusByMemberCmd) Apply(eng *engine.Store, _ *Session, now time.Time) resp.Frame {
	rows, found, err := eng.GeoRadiusByMember(c.Key, c.Member, c.Radius, c.Unit, now)
	if err == engine.ErrMemberNotFound {
		return resp.Err("ERR member not found")
	}
	if err != nil || !found {
		return resp.Err("ERR Invalid key for data type")
	}
	applyOrder(rows, c.Order)
	return geoRadiusFrame(rows)
}

// GeoDelCmd removes the entire geo key.
type GeoDelCmd struct{ Key string }

func (GeoDelCmd) Name() string  { return "GEODEL" }
func (GeoDelCmd) IsWrite() bool { return true }

func (c *GeoDelCmd) Apply(eng *engine.Store, _ *Session, now time.Time) resp.Frame {
	n, err := eng.GeoDel(c.Key, now)
	if err != nil {
		return resp.Err("ERR Invalid key for data type")
	}
	return resp.Int(n)
}

// GeoRemoveCmd removes the named Tags from the geo index at Key.
type GeoRemoveCmd struct {
	Key  string
	Tags []string
}

func (GeoRemoveCmd) Name() string  { return "GEOREM" }
func (GeoRemoveCmd) IsWrite() bool { return true }

func (c *GeoRemoveCmd) Apply(eng *engine.Store, _ *Session, now time.Time) resp.Frame {
	n, err := eng.GeoRemove(c.Key, c.Tags, now)
	if err != nil {
		return resp.Err("ERR Invalid key for data type")
	}
	return resp.Int(n)
}

// GeoJSONCmd renders Tags (all members, if empty) as a GeoJSON
// FeatureCollection.
type GeoJSONCmd struct {
	Key  string
	Tags []string
}

func (GeoJSONCmd) Name() string  { return "GEOJSON" }
func (GeoJSONCmd) IsWrite() bool { return false }

func (c *GeoJSONCmd) Apply(eng *engine.Store, _ *Session, now time.Time) resp.Frame {
	payload, found, err := eng.GeoJSON(c.Key, c.Tags, now)
	if err != nil || !found {
		return resp.Err("ERR Invalid key for data type")
	}
	return resp.BulkStr(string(payload))
}
