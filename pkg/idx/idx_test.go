package idx_test

import (
	"sort"
	"testing"
	"time"

	"github.com/aussiebroadwan/explorer/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestNewIsValid(t *testing.T) {
	id := idx.New()
	require.Len(t, id.String(), 26)
	require.True(t, idx.Valid(id.String()))
}

func TestValidRejects(t *testing.T) {
	for _, s := range []string{"", "not-a-ulid", "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3Z", "../../etc/passwd"} {
		require.False(t, idx.Valid(s), "input %q", s)
	}
}

func TestIDsSortByCreation(t *testing.T) {
	base := time.Unix(1700000000, 0)

	ids := []string{
		idx.NewAt(base).String(),
		idx.NewAt(base).String(),
		idx.NewAt(base).String(),
		idx.NewAt(base.Add(time.Second)).String(),
		idx.NewAt(base.Add(time.Hour)).String(),
	}
	require.True(t, sort.StringsAreSorted(ids))
}

func TestTime(t *testing.T) {
	at := time.Unix(1700000000, 0).UTC()
	require.WithinDuration(t, at, idx.NewAt(at).Time(), time.Millisecond)
	require.True(t, idx.ID("bogus").Time().IsZero())
}
