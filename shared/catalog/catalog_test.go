package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_Lookups(t *testing.T) {
	c := Default()

	p, err := c.Package("gold")
	require.NoError(t, err)
	assert.Equal(t, TierGold, p.Tier)

	_, err = c.Package("Bronze")
	assert.ErrorIs(t, err, ErrUnknownPackage)

	v, err := c.Venue("4")
	require.NoError(t, err)
	assert.False(t, v.Available)

	_, err = c.Venue("99")
	assert.ErrorIs(t, err, ErrUnknownVenue)

	prices, err := c.ServicePrices([]string{"1", "4"})
	require.NoError(t, err)
	assert.Equal(t, []int64{300000, 35000}, prices)

	_, err = c.ServicePrices([]string{"1", "nope"})
	assert.ErrorIs(t, err, ErrUnknownService)
}

func TestIsAuspicious(t *testing.T) {
	assert.True(t, IsAuspicious(time.Date(2026, 12, 12, 0, 0, 0, 0, time.UTC)))  // Saturday
	assert.False(t, IsAuspicious(time.Date(2026, 12, 14, 0, 0, 0, 0, time.UTC))) // Monday
}
