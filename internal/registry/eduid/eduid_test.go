package eduid

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credchain/pkg/domain"
)

func issuer(t *testing.T) domain.Address {
	t.Helper()
	addr, err := domain.ParseAddress("0xab5dcdddb6a900fa2b585dd299e03d12fa4293bc")
	require.NoError(t, err)
	return addr
}

func TestNew_MatchesFormat(t *testing.T) {
	now := time.UnixMilli(1708105200000)
	id, err := New(issuer(t), now)
	require.NoError(t, err)

	assert.True(t, id.Valid(), id)
	assert.Equal(t, "AB5D", id.InstitutionCode())

	issuedAt, err := id.IssuedAt()
	require.NoError(t, err)
	assert.Equal(t, now.UnixMilli(), issuedAt.UnixMilli())
}

func TestNew_DistinctUnderRapidGeneration(t *testing.T) {
	now := time.Now()
	seen := make(map[EduID]struct{})
	dupes := 0
	for i := 0; i < 1000; i++ {
		id, err := New(issuer(t), now)
		require.NoError(t, err)
		if _, ok := seen[id]; ok {
			dupes++
		}
		seen[id] = struct{}{}
	}
	// Two random bytes give 65536 suffixes for a fixed timestamp; a handful
	// of birthday collisions in 1000 draws is expected, mass duplication is a bug.
	assert.Less(t, dupes, 50)
}

func TestParse(t *testing.T) {
	valid := "CREDCHAIN-AB5D-1708105200000-A3F9"
	id, err := Parse(valid)
	require.NoError(t, err)
	assert.Equal(t, EduID(valid), id)

	invalid := []string{
		"",
		"CREDCHAIN-AB5D-1708105200000",
		"EDUCHAIN-AB5D-1708105200000-A3F9",
		"CREDCHAIN-ab5d-1708105200000-A3F9",
		"CREDCHAIN-AB5D-170810520000-A3F9",
		"CREDCHAIN-AB5D-1708105200000-A3F",
	}
	for _, in := range invalid {
		_, err := Parse(in)
		assert.Error(t, err, in)
	}
}
