package merge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Krish120003/databind/internal/dataset"
)

func row(kv ...any) dataset.Row {
	r := dataset.Row{}
	for i := 0; i+1 < len(kv); i += 2 {
		v, err := dataset.FromAny(kv[i+1])
		if err != nil {
			panic(err)
		}
		r[kv[i].(string)] = v
	}
	return r
}

func people() (*dataset.Dataset, *dataset.Dataset) {
	cols := []string{"id", "name", "city"}
	primary := dataset.New(cols, []dataset.Row{
		row("id", 1, "name", "A", "city", "X"),
		row("id", 2, "name", "B", "city", "Y"),
	})
	secondary := dataset.New(cols, []dataset.Row{
		row("id", 1, "name", "A", "city", "Z"),
		row("id", 3, "name", "C", "city", "W"),
	})
	return primary, secondary
}

func TestJoin_Scenario(t *testing.T) {
	primary, secondary := people()

	res, err := Join(primary, secondary, []string{"id"}, []string{"id"})
	require.NoError(t, err)

	want := []dataset.Row{
		row("id", 1, "name", "A", "city", "X"),
		row("id", 2, "name", "B", "city", "Y"),
		row("id", 3, "name", "C", "city", "W"),
	}
	require.Len(t, res.Joined.Rows, len(want))
	for i := range want {
		assert.True(t, want[i].Equal(res.Joined.Rows[i]), "row %d = %v, want %v", i, res.Joined.Rows[i], want[i])
	}

	require.Len(t, res.Conflicts, 1)
	c := res.Conflicts[0]
	assert.Equal(t, 0, c.RowIndex)
	assert.Equal(t, []string{"city"}, c.Columns)
	assert.True(t, c.Primary.Equal(primary.Rows[0]))
	assert.True(t, c.Secondary.Equal(secondary.Rows[0]))

	assert.Equal(t, []string{"id", "name", "city"}, res.AllColumns)
	assert.Equal(t, Stats{Matched: 1, PrimaryOnly: 1, SecondaryOnly: 1}, res.Stats)

	resolved := res.Resolve(Resolutions{0: SourceSecondary})
	assert.Equal(t, "Z", resolved.Rows[0].Get("city").Text())
	assert.Equal(t, "X", res.Joined.Rows[0].Get("city").Text(), "Resolve must not modify the joined rows")
}

func TestJoin_InvalidKeys(t *testing.T) {
	primary, secondary := people()

	tests := []struct {
		name string
		pk   []string
		sk   []string
	}{
		{"both empty", nil, nil},
		{"primary empty", nil, []string{"id"}},
		{"secondary empty", []string{"id"}, []string{}},
		{"length mismatch", []string{"id", "name"}, []string{"id"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Join(primary, secondary, tt.pk, tt.sk)
			assert.True(t, errors.Is(err, ErrInvalidKeyConfiguration), "err = %v", err)
		})
	}
}

func TestJoin_DuplicateSecondaryKeysLastWins(t *testing.T) {
	primary := dataset.New([]string{"id", "v"}, []dataset.Row{row("id", 1, "v", "p")})
	secondary := dataset.New([]string{"id", "w"}, []dataset.Row{
		row("id", 1, "w", "first"),
		row("id", 1, "w", "second"),
	})

	res, err := Join(primary, secondary, []string{"id"}, []string{"id"})
	require.NoError(t, err)

	require.Len(t, res.Joined.Rows, 1, "matched duplicates are not appended")
	assert.Equal(t, "second", res.Joined.Rows[0].Get("w").Text())
	assert.Equal(t, 1, res.Stats.DuplicateSecondaryKeys)
}

func TestJoin_UnmatchedSecondaryDuplicatesAllAppended(t *testing.T) {
	primary := dataset.New([]string{"id"}, []dataset.Row{row("id", 1)})
	secondary := dataset.New([]string{"id", "w"}, []dataset.Row{
		row("id", 9, "w", "a"),
		row("id", 9, "w", "b"),
	})

	res, err := Join(primary, secondary, []string{"id"}, []string{"id"})
	require.NoError(t, err)

	require.Len(t, res.Joined.Rows, 3)
	assert.Equal(t, "a", res.Joined.Rows[1].Get("w").Text())
	assert.Equal(t, "b", res.Joined.Rows[2].Get("w").Text())
	assert.Equal(t, 2, res.Stats.SecondaryOnly)
}

func TestJoin_BlankKeysMatch(t *testing.T) {
	primary := dataset.New([]string{"id", "a"}, []dataset.Row{row("a", "p")})
	secondary := dataset.New([]string{"id", "b"}, []dataset.Row{row("id", nil, "b", "s")})

	res, err := Join(primary, secondary, []string{"id"}, []string{"id"})
	require.NoError(t, err)

	require.Len(t, res.Joined.Rows, 1)
	assert.Equal(t, "s", res.Joined.Rows[0].Get("b").Text())
	assert.Equal(t, 1, res.Stats.Matched)
}

func TestJoin_NumberMatchesNumericString(t *testing.T) {
	primary := dataset.New([]string{"id", "amount"}, []dataset.Row{row("id", 1, "amount", 10)})
	secondary := dataset.New([]string{"id", "amount"}, []dataset.Row{row("id", "1", "amount", "10")})

	res, err := Join(primary, secondary, []string{"id"}, []string{"id"})
	require.NoError(t, err)

	require.Len(t, res.Joined.Rows, 1)
	assert.Empty(t, res.Conflicts, "equal text is not a conflict")
	assert.Equal(t, dataset.KindNumber, res.Joined.Rows[0].Get("amount").Kind(), "primary value is kept")
}

func TestJoin_NullAndMissing(t *testing.T) {
	primary := dataset.New([]string{"id", "a", "b"}, []dataset.Row{
		row("id", 1, "a", nil),
	})
	secondary := dataset.New([]string{"id", "a", "b", "c"}, []dataset.Row{
		row("id", 1, "a", "sa", "b", "sb", "c", nil),
	})

	res, err := Join(primary, secondary, []string{"id"}, []string{"id"})
	require.NoError(t, err)

	got := res.Joined.Rows[0]
	assert.True(t, got.Get("a").IsNull(), "primary null is kept and not a conflict")
	assert.Equal(t, "sb", got.Get("b").Text(), "missing primary value is filled")
	assert.True(t, got.Get("c").IsNull(), "secondary null fills a missing primary value")
	assert.Empty(t, res.Conflicts)
}

func TestJoin_AllColumnsOnEveryRow(t *testing.T) {
	primary := dataset.New([]string{"id", "a"}, []dataset.Row{row("id", 1, "a", "x")})
	secondary := dataset.New([]string{"id", "b"}, []dataset.Row{row("id", 2, "b", "y")})

	res, err := Join(primary, secondary, []string{"id"}, []string{"id"})
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "a", "b"}, res.AllColumns)
	for i, r := range res.Joined.Rows {
		assert.Len(t, r, 3, "row %d", i)
	}
	assert.True(t, res.Joined.Rows[0].Get("b").IsMissing())
	assert.True(t, res.Joined.Rows[1].Get("a").IsMissing())
}

func TestJoin_CompositeKeyDifferentNames(t *testing.T) {
	primary := dataset.New([]string{"first", "last", "age"}, []dataset.Row{
		row("first", "Ada", "last", "Lovelace", "age", 36),
		row("first", "Ada", "last", "Byron", "age", 1),
	})
	secondary := dataset.New([]string{"given", "family", "city"}, []dataset.Row{
		row("given", "Ada", "family", "Byron", "city", "London"),
	})

	res, err := Join(primary, secondary, []string{"first", "last"}, []string{"given", "family"})
	require.NoError(t, err)

	require.Len(t, res.Joined.Rows, 2)
	assert.True(t, res.Joined.Rows[0].Get("city").IsMissing())
	assert.Equal(t, "London", res.Joined.Rows[1].Get("city").Text())
	assert.Equal(t, "Byron", res.Joined.Rows[1].Get("family").Text())
}

func TestJoin_KeyTokensResistSeparatorCollisions(t *testing.T) {
	primary := dataset.New([]string{"a", "b"}, []dataset.Row{row("a", "x|y", "b", "z")})
	secondary := dataset.New([]string{"a", "b", "c"}, []dataset.Row{row("a", "x", "b", "y|z", "c", "hit")})

	res, err := Join(primary, secondary, []string{"a", "b"}, []string{"a", "b"})
	require.NoError(t, err)

	assert.Equal(t, 0, res.Stats.Matched)
	assert.Len(t, res.Joined.Rows, 2)
}

func TestKeyToken(t *testing.T) {
	tests := []struct {
		name string
		a, b dataset.Row
		same bool
	}{
		{"number and string", row("k", 1), row("k", "1"), true},
		{"null and missing", row("k", nil), row(), true},
		{"empty string is not blank", row("k", ""), row(), false},
		{"separator in value", row("k", "a|b", "j", "c"), row("k", "a", "j", "b|c"), false},
		{"length prefix spoof", row("k", "1:a", "j", ""), row("k", "1", "j", "a"), false},
		{"bool text", row("k", true), row("k", "true"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols := []string{"k", "j"}
			got := KeyToken(tt.a, cols) == KeyToken(tt.b, cols)
			assert.Equal(t, tt.same, got)
		})
	}
}

func TestJoin_DoesNotMutateInputs(t *testing.T) {
	primary, secondary := people()
	pBefore, sBefore := primary.Clone(), secondary.Clone()

	res, err := Join(primary, secondary, []string{"id"}, []string{"id"})
	require.NoError(t, err)
	res.Joined.Rows[0].Set("city", dataset.String("changed"))

	for i := range primary.Rows {
		assert.True(t, pBefore.Rows[i].Equal(primary.Rows[i]))
	}
	for i := range secondary.Rows {
		assert.True(t, sBefore.Rows[i].Equal(secondary.Rows[i]))
	}
}

func TestJoin_EmptyInputs(t *testing.T) {
	primary, secondary := people()

	res, err := Join(&dataset.Dataset{}, secondary, []string{"id"}, []string{"id"})
	require.NoError(t, err)
	assert.Len(t, res.Joined.Rows, 2)
	assert.Equal(t, 2, res.Stats.SecondaryOnly)

	res, err = Join(primary, nil, []string{"id"}, []string{"id"})
	require.NoError(t, err)
	assert.Len(t, res.Joined.Rows, 2)
	assert.Empty(t, res.Conflicts)
}

func TestResolve(t *testing.T) {
	primary := dataset.New([]string{"id", "a", "b"}, []dataset.Row{
		row("id", 1, "a", "p1", "b", "q1"),
		row("id", 2, "a", "p2", "b", "same"),
		row("id", 3, "a", "p3", "b", "q3"),
	})
	secondary := dataset.New([]string{"id", "a", "b"}, []dataset.Row{
		row("id", 1, "a", "s1", "b", "r1"),
		row("id", 2, "a", "s2", "b", "same"),
		row("id", 3, "a", "s3", "b", "r3"),
	})

	res, err := Join(primary, secondary, []string{"id"}, []string{"id"})
	require.NoError(t, err)
	require.Len(t, res.Conflicts, 3)
	assert.Equal(t, []string{"a", "b"}, res.Conflicts[0].Columns)
	assert.Equal(t, []string{"a"}, res.Conflicts[1].Columns)

	resolutions := Resolutions{0: SourceSecondary, 1: SourcePrimary}
	out := res.Resolve(resolutions)

	assert.Equal(t, "s1", out.Rows[0].Get("a").Text())
	assert.Equal(t, "r1", out.Rows[0].Get("b").Text())
	assert.Equal(t, "p2", out.Rows[1].Get("a").Text())
	assert.Equal(t, "p3", out.Rows[2].Get("a").Text(), "unresolved keeps the merged value")
	assert.Equal(t, []int{2}, res.Unresolved(resolutions))

	again := res.Resolve(resolutions)
	for i := range out.Rows {
		assert.True(t, out.Rows[i].Equal(again.Rows[i]), "Resolve is idempotent")
	}
}

func TestResolve_EmptyInputs(t *testing.T) {
	out := Resolve(nil, nil, nil)
	require.NotNil(t, out)
	assert.Empty(t, out.Rows)

	primary, secondary := people()
	res, err := Join(primary, secondary, []string{"id"}, []string{"id"})
	require.NoError(t, err)

	out = res.Resolve(nil)
	for i := range out.Rows {
		assert.True(t, res.Joined.Rows[i].Equal(out.Rows[i]))
	}
}

func TestResult_FindConflict(t *testing.T) {
	primary, secondary := people()
	res, err := Join(primary, secondary, []string{"id"}, []string{"id"})
	require.NoError(t, err)

	c, ok := res.FindConflict(0)
	assert.True(t, ok)
	assert.Equal(t, 0, c.RowIndex)

	_, ok = res.FindConflict(1)
	assert.False(t, ok)
}

func TestParseSource(t *testing.T) {
	src, err := ParseSource(" Secondary ")
	require.NoError(t, err)
	assert.Equal(t, SourceSecondary, src)

	_, err = ParseSource("both")
	assert.ErrorIs(t, err, ErrInvalidSource)
}
