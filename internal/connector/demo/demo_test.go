package demo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelcm/marketing-pulse/internal/connector"
	"github.com/angelcm/marketing-pulse/internal/models"
)

func TestFetchDeterministicPerSeed(t *testing.T) {
	ctx := context.Background()

	t1, err := Meta(42).Fetch(ctx, 14)
	require.NoError(t, err)
	t2, err := Meta(42).Fetch(ctx, 14)
	require.NoError(t, err)
	assert.Equal(t, t1.Rows, t2.Rows, "same seed, same data")

	t3, err := Meta(7).Fetch(ctx, 14)
	require.NoError(t, err)
	assert.NotEqual(t, t1.Rows, t3.Rows, "different seed, different data")
}

func TestSourcesDifferUnderSameSeed(t *testing.T) {
	ctx := context.Background()
	m, err := Meta(1).Fetch(ctx, 7)
	require.NoError(t, err)
	g, err := GoogleAds(1).Fetch(ctx, 7)
	require.NoError(t, err)

	// el id participa en la semilla
	assert.NotEqual(t, m.Rows[0], g.Rows[0])
}

func TestFetchWindowSize(t *testing.T) {
	table, err := Shopify(1).Fetch(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, table.Rows, 10)
	assert.Contains(t, table.Columns, "total_sales")
	assert.Contains(t, table.Columns, "orders")
}

func TestRegisterFullPortfolio(t *testing.T) {
	reg := connector.NewRegistry()
	Register(reg, 1)

	statuses := reg.Statuses()
	require.Len(t, statuses, 5)
	assert.Equal(t, "meta", statuses[0].ID)
	assert.Equal(t, models.SourceAds, statuses[0].Type)
	assert.Equal(t, "ga4", statuses[4].ID)

	counts := reg.CountsByCategory()
	assert.Equal(t, [2]int{2, 2}, counts["advertising"])
	assert.Equal(t, [2]int{1, 1}, counts["ecommerce"])
	assert.Equal(t, [2]int{1, 1}, counts["email"])
	assert.Equal(t, [2]int{1, 1}, counts["analytics"])
}

func TestFetchHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := GA4(1).Fetch(ctx, 7)
	require.Error(t, err)
}
