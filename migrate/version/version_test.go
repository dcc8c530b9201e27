package version

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Version
	}{
		{"1.0.0", New(1, 0, 0)},
		{"1.0.2", New(1, 0, 2)},
		{"v2.10.3", New(2, 10, 3)},
		{"3.1", New(3, 1, 0)},
		{"4", New(4, 0, 0)},
		{"1.2.3.0", New(1, 2, 3)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRejects(t *testing.T) {
	for _, in := range []string{"", "abc", "1.0.0-beta", "1.0.0+build", "1.2.3.4"} {
		_, err := Parse(in)
		assert.Error(t, err, in)
	}
}

func TestCompareIsComponentWise(t *testing.T) {
	assert.True(t, New(1, 0, 9).Less(New(1, 0, 10)))
	assert.True(t, New(1, 9, 0).Less(New(1, 10, 0)))
	assert.True(t, New(1, 99, 99).Less(New(2, 0, 0)))
	assert.Equal(t, 0, New(1, 2, 3).Compare(MustParse("1.2.3")))
	assert.True(t, New(1, 0, 1).LessOrEqual(New(1, 0, 1)))
}

func TestSortAscending(t *testing.T) {
	versions := []Version{New(1, 0, 10), New(1, 0, 2), New(0, 9, 0), New(1, 0, 0)}
	sort.Slice(versions, func(i, j int) bool { return versions[i].Less(versions[j]) })

	assert.Equal(t, []Version{New(0, 9, 0), New(1, 0, 0), New(1, 0, 2), New(1, 0, 10)}, versions)
}

func genVersion(t *rapid.T, label string) Version {
	return New(
		rapid.IntRange(0, 50).Draw(t, label+"-major"),
		rapid.IntRange(0, 50).Draw(t, label+"-minor"),
		rapid.IntRange(0, 50).Draw(t, label+"-patch"),
	)
}

func TestCompareTotalOrderRapid(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := genVersion(t, "a")
		b := genVersion(t, "b")
		c := genVersion(t, "c")

		if a.Compare(b) != -b.Compare(a) {
			t.Fatalf("compare not antisymmetric for %s and %s", a, b)
		}
		if (a.Compare(b) == 0) != (a == b) {
			t.Fatalf("compare zero must mean equality for %s and %s", a, b)
		}
		if a.LessOrEqual(b) && b.LessOrEqual(c) && !a.LessOrEqual(c) {
			t.Fatalf("compare not transitive for %s, %s, %s", a, b, c)
		}
	})
}

func TestStringRoundTripRapid(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := genVersion(t, "v")
		parsed, err := Parse(v.String())
		if err != nil {
			t.Fatalf("parse %q: %v", v.String(), err)
		}
		if parsed != v {
			t.Fatalf("expected %s, got %s", v, parsed)
		}
	})
}
