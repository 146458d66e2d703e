package utils

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// north returns p moved the given number of meters due north.
func north(p orb.Point, meters float64) orb.Point {
	return orb.Point{p.Lon(), p.Lat() + meters/orb.EarthRadius*180/math.Pi}
}

func TestDistance(t *testing.T) {
	a := orb.Point{-122.3321, 47.6062}
	b := orb.Point{-122.3035, 47.6553}
	c := orb.Point{-122.2015, 47.6101}

	t.Run("zero for identical points", func(t *testing.T) {
		assert.Equal(t, 0.0, Distance(a, a))
	})

	t.Run("symmetric", func(t *testing.T) {
		assert.InDelta(t, Distance(a, b), Distance(b, a), 1e-9)
	})

	t.Run("triangle inequality", func(t *testing.T) {
		assert.LessOrEqual(t, Distance(a, c), Distance(a, b)+Distance(b, c)+1e-6)
	})

	t.Run("meters along a meridian", func(t *testing.T) {
		assert.InDelta(t, 12.0, Distance(a, north(a, 12)), 0.01)
	})
}

func TestClampRadius(t *testing.T) {
	assert.Equal(t, 5.0, ClampRadius(5))
	assert.Equal(t, 10.0, ClampRadius(10))
	assert.Equal(t, 10.0, ClampRadius(250))
}

func TestBoundAround(t *testing.T) {
	center := orb.Point{-122.3321, 47.6062}
	bound := BoundAround(center, 10)

	assert.True(t, bound.Contains(center))
	assert.True(t, bound.Contains(north(center, 9)))
	assert.False(t, bound.Contains(north(center, 20)))
}

type candidate struct {
	name  string
	point orb.Point
}

func candidateLocation(c candidate) orb.Point { return c.point }

func TestNearestWithin(t *testing.T) {
	origin := orb.Point{-122.3321, 47.6062}

	t.Run("no candidates", func(t *testing.T) {
		_, _, ok := NearestWithin(origin, []candidate{}, candidateLocation, 10)
		assert.False(t, ok)
	})

	t.Run("nothing within radius", func(t *testing.T) {
		candidates := []candidate{{"far", north(origin, 12)}}
		_, _, ok := NearestWithin(origin, candidates, candidateLocation, 10)
		assert.False(t, ok)
	})

	t.Run("closest candidate wins", func(t *testing.T) {
		candidates := []candidate{
			{"eight", north(origin, 8)},
			{"three", north(origin, 3)},
			{"five", north(origin, 5)},
		}
		best, d, ok := NearestWithin(origin, candidates, candidateLocation, 10)
		require.True(t, ok)
		assert.Equal(t, "three", best.name)
		assert.InDelta(t, 3.0, d, 0.01)
	})

	t.Run("first seen wins on exact ties", func(t *testing.T) {
		p := north(origin, 4)
		candidates := []candidate{{"first", p}, {"second", p}}
		best, _, ok := NearestWithin(origin, candidates, candidateLocation, 10)
		require.True(t, ok)
		assert.Equal(t, "first", best.name)
	})

	t.Run("radius above the cap is clamped", func(t *testing.T) {
		candidates := []candidate{{"twelve", north(origin, 12)}}
		_, _, ok := NearestWithin(origin, candidates, candidateLocation, 500)
		assert.False(t, ok)
	})

	t.Run("smaller radius excludes closer candidates", func(t *testing.T) {
		candidates := []candidate{{"six", north(origin, 6)}}
		_, _, ok := NearestWithin(origin, candidates, candidateLocation, 5)
		assert.False(t, ok)
	})
}
