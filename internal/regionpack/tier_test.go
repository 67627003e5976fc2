package regionpack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTier(t *testing.T) {
	tests := []struct {
		in   string
		want Tier
	}{
		{"vagrant", TierVagrant},
		{"rare", TierRare},
		{"uncommon", TierUncommon},
		{"common", TierCommon},
	}
	for _, tt := range tests {
		got, err := ParseTier(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.in, got.String())
	}

	_, err := ParseTier("mythical")
	assert.Error(t, err)
	_, err = ParseTier("Common")
	assert.Error(t, err)
}

func TestTierOrdering(t *testing.T) {
	assert.True(t, TierCommon.Meets(TierVagrant))
	assert.True(t, TierCommon.Meets(TierCommon))
	assert.True(t, TierRare.Meets(TierRare))
	assert.False(t, TierVagrant.Meets(TierRare))
	assert.False(t, TierUncommon.Meets(TierCommon))
}

func TestRequiredTier(t *testing.T) {
	// Strictness names the rarest excluded tier
	assert.Equal(t, TierRare, TierVagrant.RequiredTier())
	assert.Equal(t, TierUncommon, TierRare.RequiredTier())
	assert.Equal(t, TierCommon, TierUncommon.RequiredTier())
	assert.Equal(t, TierCommon, TierCommon.RequiredTier())
}

func TestTierNamesAtOrAbove(t *testing.T) {
	assert.Equal(t, []string{"common"}, tierNamesAtOrAbove(TierCommon))
	assert.Equal(t, []string{"uncommon", "common"}, tierNamesAtOrAbove(TierUncommon))
	assert.Equal(t, []string{"vagrant", "rare", "uncommon", "common"}, tierNamesAtOrAbove(TierVagrant))
}
