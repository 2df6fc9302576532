package command

import (
	"testing"

	"github.com/mambisi/escanor/internal/engine"
	"github.com/mambisi/escanor/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePing(t *testing.T) {
	cmd, err := Parse([]string{"PING"})
	require.NoError(t, err)
	assert.IsType(t, &PingCmd{}, cmd)
}

func TestParseSetWithIntValue(t *testing.T) {
	cmd, err := Parse([]string{"SET", "counter", "42"})
	require.NoError(t, err)
	set := cmd.(*SetCmd)
	assert.Equal(t, "counter", set.Key)
	assert.Equal(t, engine.IntValue(42), set.Value)
	assert.Zero(t, set.ExpireSeconds)
}

func TestParseSetWithStringValue(t *testing.T) {
	cmd, err := Parse([]string{"SET", "name", "escanor"})
	require.NoError(t, err)
	set := cmd.(*SetCmd)
	assert.Equal(t, engine.StringValue("escanor"), set.Value)
}

func TestParseSetWithExpire(t *testing.T) {
	cmd, err := Parse([]string{"SET", "k", "v", "EX", "30"})
	require.NoError(t, err)
	set := cmd.(*SetCmd)
	assert.EqualValues(t, 30, set.ExpireSeconds)
}

func TestParseSetMalformedExpireClause(t *testing.T) {
	_, err := Parse([]string{"SET", "k", "v", "EX"})
	assert.ErrorIs(t, err, engine.ErrSyntax)

	_, err = Parse([]string{"SET", "k", "v", "NOTEX", "30"})
	assert.ErrorIs(t, err, engine.ErrSyntax)
}

func TestParseExistsVariadic(t *testing.T) {
	cmd, err := Parse([]string{"EXISTS", "a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, cmd.(*ExistsCmd).Keys)
}

func TestParseExpireRejectsNegative(t *testing.T) {
	_, err := Parse([]string{"EXPIRE", "k", "-1"})
	assert.ErrorIs(t, err, engine.ErrSyntax)
}

func TestParseGeoAddChunksOfThree(t *testing.T) {
	cmd, err := Parse([]string{"GEOADD", "places", "13.361389", "38.115556", "palermo"})
	require.NoError(t, err)
	add := cmd.(*GeoAddCmd)
	require.Len(t, add.Items, 1)
	assert.Equal(t, "palermo", add.Items[0].Tag)
	assert.InDelta(t, 38.115556, add.Items[0].Lat, 1e-9)
	assert.InDelta(t, 13.361389, add.Items[0].Lng, 1e-9)
}

func TestParseGeoAddRejectsIncompleteTriple(t *testing.T) {
	_, err := Parse([]string{"GEOADD", "places", "13.36", "38.11"})
	assert.ErrorIs(t, err, engine.ErrSyntax)
}

func TestParseGeoRadiusWithOrder(t *testing.T) {
	cmd, err := Parse([]string{"GEORADIUS", "places", "15", "37", "200", "km", "desc"})
	require.NoError(t, err)
	gr := cmd.(*GeoRadiusCmd)
	assert.Equal(t, util.UnitKilometers, gr.Unit)
	assert.Equal(t, OrderDesc, gr.Order)
}

func TestParseGeoRadiusRejectsBadUnit(t *testing.T) {
	_, err := Parse([]string{"GEORADIUS", "places", "15", "37", "200", "lightyears"})
	assert.ErrorIs(t, err, engine.ErrSyntax)
}

func TestParseJSetPathValuePairs(t *testing.T) {
	cmd, err := Parse([]string{"JSET", "doc", "a.b", "1", "a.c", "1.5", "a.d", "hello"})
	require.NoError(t, err)
	js := cmd.(*JSetCmd)
	require.Len(t, js.Items, 3)
	assert.Equal(t, int64(1), js.Items[0].Value)
	assert.Equal(t, 1.5, js.Items[1].Value)
	assert.Equal(t, "hello", js.Items[2].Value)
}

func TestParseJIncrByFloatRejectsZero(t *testing.T) {
	_, err := Parse([]string{"JINCRBYFLOAT", "doc", "a.b", "0"})
	assert.ErrorIs(t, err, engine.ErrSyntax)
}

func TestParseJIncrByRejectsNonInteger(t *testing.T) {
	_, err := Parse([]string{"JINCRBY", "doc", "a.b", "1.5"})
	assert.ErrorIs(t, err, engine.ErrSyntax)
}

func TestParseUnknownCommand(t *testing.T) {
	_, err := Parse([]string{"FROBNICATE", "x"})
	assert.ErrorIs(t, err, engine.ErrSyntax)
}

func TestParseEmptyTokenStream(t *testing.T) {
	_, err := Parse(nil)
	assert.ErrorIs(t, err, engine.ErrSyntax)
}

func TestParseJDelAndJRemSupplement(t *testing.T) {
	cmd, err := Parse([]string{"JDEL", "doc"})
	require.NoError(t, err)
	assert.Equal(t, "doc", cmd.(*JDelCmd).Key)

	cmd, err = Parse([]string{"JREM", "doc", "a.b", "a.c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.b", "a.c"}, cmd.(*JRemCmd).Paths)
}
