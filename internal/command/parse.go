package command

import (
	"strconv"
	"strings"

	"github.com/mambisi/escanor/internal/engine"
	"github.com/mambisi/escanor/internal/util"
)

// Parse compiles a token stream (produced by internal/resp's tokenizer)
// into a Command. Any malformed argument collapses to ErrSyntax — the
// original engine never distinguishes which argument was wrong.
func Parse(tokens []string) (Command, error) {
	if len(tokens) == 0 {
		return nil, engine.ErrSyntax
	}
	name := strings.ToLower(tokens[0])
	args := tokens[1:]

	switch name {
	case "ping":
		return &PingCmd{}, nil
	case "auth":
		if len(args) < 1 {
			return nil, engine.ErrSyntax
		}
		return &AuthCmd{Password: args[0]}, nil
	case "info":
		if len(args) != 0 {
			return nil, engine.ErrSyntax
		}
		return &InfoCmd{}, nil
	case "dbsize":
		return &DBSizeCmd{}, nil
	case "randomkey":
		return &RandomKeyCmd{}, nil

	case "set":
		if len(args) < 2 {
			return nil, engine.ErrSyntax
		}
		key, raw := args[0], args[1]
		if key == "" || raw == "" {
			return nil, engine.ErrSyntax
		}
		val := scalarFromToken(raw)
		var exp uint32
		if len(args) >= 3 {
			if !strings.EqualFold(args[2], "ex") {
				return nil, engine.ErrSyntax
			}
			if len(args) < 4 {
				return nil, engine.ErrSyntax
			}
			n, err := strconv.ParseUint(args[3], 10, 32)
			if err != nil {
				return nil, engine.ErrSyntax
			}
			exp = uint32(n)
		}
		return &SetCmd{Key: key, Value: val, ExpireSeconds: exp}, nil

	case "getset":
		if len(args) < 2 || args[0] == "" || args[1] == "" {
			return nil, engine.ErrSyntax
		}
		return &GetSetCmd{Key: args[0], Value: scalarFromToken(args[1])}, nil

	case "get":
		if len(args) < 1 || args[0] == "" {
			return nil, engine.ErrSyntax
		}
		return &GetCmd{Key: args[0]}, nil

	case "del":
		if len(args) < 1 || args[0] == "" {
			return nil, engine.ErrSyntax
		}
		return &DelCmd{Key: args[0]}, nil

	case "exists":
		if len(args) == 0 {
			return nil, engine.ErrSyntax
		}
		return &ExistsCmd{Keys: append([]string(nil), args...)}, nil

	case "keys":
		if len(args) < 1 || args[0] == "" {
			return nil, engine.ErrSyntax
		}
		return &KeysCmd{Pattern: args[0]}, nil

	case "ttl":
		if len(args) < 1 || args[0] == "" {
			return nil, engine.ErrSyntax
		}
		return &TTLCmd{Key: args[0]}, nil

	case "persist":
		if len(args) < 1 || args[0] == "" {
			return nil, engine.ErrSyntax
		}
		return &PersistCmd{Key: args[0]}, nil

	case "expire":
		if len(args) < 2 || args[0] == "" || args[1] == "" {
			return nil, engine.ErrSyntax
		}
		n, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil || n < 0 {
			return nil, engine.ErrSyntax
		}
		return &ExpireCmd{Key: args[0], Seconds: n}, nil

	case "expireat":
		if len(args) < 2 || args[0] == "" || args[1] == "" {
			return nil, engine.ErrSyntax
		}
		n, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil || n < 0 {
			return nil, engine.ErrSyntax
		}
		return &ExpireAtCmd{Key: args[0], UnixSeconds: n}, nil

	case "incrby":
		if len(args) < 2 || args[0] == "" || args[1] == "" {
			return nil, engine.ErrSyntax
		}
		n, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return nil, engine.ErrSyntax
		}
		return &IncrByCmd{Key: args[0], Delta: n}, nil

	case "geoadd":
		return parseGeoAdd(args)
	case "geohash":
		return parseGeoTagList(args, func(key string, tags []string) Command {
			return &GeoHashCmd{Key: key, Tags: tags}
		})
	case "geopos":
		return parseGeoTagList(args, func(key string, tags []string) Command {
			return &GeoPosCmd{Key: key, Tags: tags}
		})
	case "georem":
		return parseGeoTagList(args, func(key string, tags []string) Command {
			return &GeoRemoveCmd{Key: key, Tags: tags}
		})
	case "geojson":
		return parseGeoTagList(args, func(key string, tags []string) Command {
			return &GeoJSONCmd{Key: key, Tags: tags}
		})
	case "geodist":
		return parseGeoDist(args)
	case "georadius":
		return parseGeoRadius(args)
	case "georadiusbymember":
		return parseGeoRadiusByMember(args)
	case "geodel":
		if len(args) < 1 || args[0] == "" {
			return nil, engine.ErrSyntax
		}
		return &GeoDelCmd{Key: args[0]}, nil

	case "jsetr":
		if len(args) < 2 || args[0] == "" || args[1] == "" {
			return nil, engine.ErrSyntax
		}
		return &JSetRawCmd{Key: args[0], Value: []byte(args[1])}, nil
	case "jset":
		return parseJSet(args)
	case "jmerge":
		if len(args) < 2 || args[0] == "" || args[1] == "" {
			return nil, engine.ErrSyntax
		}
		return &JMergeCmd{Key: args[0], Value: []byte(args[1])}, nil
	case "jget":
		if len(args) < 1 || args[0] == "" {
			return nil, engine.ErrSyntax
		}
		path := ""
		if len(args) >= 2 {
			path = args[1]
		}
		return &JGetCmd{Key: args[0], DotPath: path}, nil
	case "jpath":
		if len(args) < 2 || args[0] == "" || args[1] == "" {
			return nil, engine.ErrSyntax
		}
		return &JPathCmd{Key: args[0], Selector: args[1]}, nil
	case "jdel":
		if len(args) < 1 || args[0] == "" {
			return nil, engine.ErrSyntax
		}
		return &JDelCmd{Key: args[0]}, nil
	case "jrem":
		if len(args) < 2 || args[0] == "" {
			return nil, engine.ErrSyntax
		}
		return &JRemCmd{Key: args[0], Paths: append([]string(nil), args[1:]...)}, nil
	case "jincrby":
		if len(args) < 3 || args[0] == "" || args[1] == "" || args[2] == "" {
			return nil, engine.ErrSyntax
		}
		if !util.IsInteger(args[2]) {
			return nil, engine.ErrSyntax
		}
		n, _ := strconv.ParseInt(args[2], 10, 64)
		return &JIncrByCmd{Key: args[0], Path: args[1], Delta: n}, nil
	case "jincrbyfloat":
		if len(args) < 3 || args[0] == "" || args[1] == "" || args[2] == "" {
			return nil, engine.ErrSyntax
		}
		if !util.IsNumeric(args[2]) {
			return nil, engine.ErrSyntax
		}
		f, _ := strconv.ParseFloat(args[2], 64)
		if f == 0 {
			return nil, engine.ErrSyntax
		}
		return &JIncrByFloatCmd{Key: args[0], Path: args[1], Delta: f}, nil
	}

	return nil, engine.ErrSyntax
}

// scalarFromToken parses a SET/GETSET value token as Int if it parses
// as a base-10 integer, String otherwise. No Float auto-detection, no
// JSON auto-detection: JSON values come only from the J* commands, and
// no command creates a Float value (INCRBY only keeps a Float that is
// already stored).
func scalarFromToken(s string) engine.Value {
	if util.IsInteger(s) {
		n, _ := strconv.ParseInt(s, 10, 64)
		return engine.IntValue(n)
	}
	return engine.StringValue(s)
}

func parseGeoAdd(args []string) (Command, error) {
	if len(args) < 1 || args[0] == "" {
		return nil, engine.ErrSyntax
	}
	key := args[0]
	rest := args[1:]
	if len(rest) == 0 || len(rest)%3 != 0 {
		return nil, engine.ErrSyntax
	}
	items := make([]engine.GeoItem, 0, len(rest)/3)
	for i := 0; i < len(rest); i += 3 {
		lng, lat, tag := rest[i], rest[i+1], rest[i+2]
		if !util.IsNumeric(lat) || !util.IsNumeric(lng) {
			return nil, engine.ErrSyntax
		}
		latF, _ := strconv.ParseFloat(lat, 64)
		lngF, _ := strconv.ParseFloat(lng, 64)
		items = append(items, engine.GeoItem{Tag: tag, Lat: latF, Lng: lngF})
	}
	return &GeoAddCmd{Key: key, Items: items}, nil
}

func parseGeoTagList(args []string, build func(key string, tags []string) Command) (Command, error) {
	if len(args) < 1 || args[0] == "" {
		return nil, engine.ErrSyntax
	}
	key := args[0]
	tags := args[1:]
	if len(tags) == 0 {
		return nil, engine.ErrSyntax
	}
	return build(key, append([]string(nil), tags...)), nil
}

func parseGeoDist(args []string) (Command, error) {
	if len(args) < 4 {
		return nil, engine.ErrSyntax
	}
	key, memA, memB, unitStr := args[0], args[1], args[2], strings.ToLower(args[3])
	if key == "" || memA == "" || memB == "" || unitStr == "" {
		return nil, engine.ErrSyntax
	}
	unit, ok := util.ParseUnit(unitStr)
	if !ok {
		return nil, engine.ErrSyntax
	}
	return &GeoDistCmd{Key: key, MemberA: memA, MemberB: memB, Unit: unit}, nil
}

func parseOrder(s string) (Order, error) {
	s = strings.ToLower(s)
	switch s {
	case "":
		return OrderUnspecified, nil
	case "asc":
		return OrderAsc, nil
	case "desc":
		return OrderDesc, nil
	}
	return OrderUnspecified, engine.ErrSyntax
}

func parseGeoRadius(args []string) (Command, error) {
	if len(args) < 5 {
		return nil, engine.ErrSyntax
	}
	key, lngS, latS, radiusS, unitS := args[0], args[1], args[2], args[3], strings.ToLower(args[4])
	if key == "" || lngS == "" || latS == "" || radiusS == "" || unitS == "" {
		return nil, engine.ErrSyntax
	}
	unit, ok := util.ParseUnit(unitS)
	if !ok {
		return nil, engine.ErrSyntax
	}
	order := OrderUnspecified
	if len(args) >= 6 {
		var err error
		order, err = parseOrder(args[5])
		if err != nil {
			return nil, err
		}
	}
	if !util.IsNumeric(latS) || !util.IsNumeric(lngS) || !util.IsNumeric(radiusS) {
		return nil, engine.ErrSyntax
	}
	lat, _ := strconv.ParseFloat(latS, 64)
	lng, _ := strconv.ParseFloat(lngS, 64)
	radius, _ := strconv.ParseFloat(radiusS, 64)
	return &GeoRadiusCmd{Key: key, Lat: lat, Lng: lng, Radius: radius, Unit: unit, Order: order}, nil
}

func parseGeoRadiusByMember(args []string) (Command, error) {
	if len(args) < 4 {
		return nil, engine.ErrSyntax
	}
	key, member, radiusS, unitS := args[0], args[1], args[2], strings.ToLower(args[3])
	if key == "" || member == "" || radiusS == "" || unitS == "" {
		return nil, engine.ErrSyntax
	}
	unit, ok := util.ParseUnit(unitS)
	if !ok {
		return nil, engine.ErrSyntax
	}
	order := OrderUnspecified
	if len(args) >= 5 {
		var err error
		order, err = parseOrder(args[4])
		if err != nil {
			return nil, err
		}
	}
	if !util.IsNumeric(radiusS) {
		return nil, engine.ErrSyntax
	}
	radius, _ := strconv.ParseFloat(radiusS, 64)
	return &GeoRadiusByMemberCmd{Key: key, Member: member, Radius: radius, Unit: unit, Order: order}, nil
}

func parseJSet(args []string) (Command, error) {
	if len(args) < 1 || args[0] == "" {
		return nil, engine.ErrSyntax
	}
	key := args[0]
	rest := args[1:]
	if len(rest) == 0 || len(rest)%2 != 0 {
		return nil, engine.ErrSyntax
	}
	items := make([]engine.SetPathItem, 0, len(rest)/2)
	for i := 0; i < len(rest); i += 2 {
		path, valStr := rest[i], rest[i+1]
		items = append(items, engine.SetPathItem{Path: path, Value: jsetValue(valStr)})
	}
	return &JSetCmd{Key: key, Items: items}, nil
}

// jsetValue mirrors the original engine's JSET value coercion: a
// numeric token becomes a JSON number (integral if it has no
// fractional part), anything else becomes a JSON string.
func jsetValue(s string) interface{} {
	if util.IsNumeric(s) {
		f, _ := strconv.ParseFloat(s, 64)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	}
	return s
}
