package depthengine

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func lvl(price, qty string) PriceLevel {
	return PriceLevel{Price: decimal.RequireFromString(price), Qty: decimal.RequireFromString(qty)}
}

func newTestBook() *Book {
	return NewBook("BTCUSDT", testLogger())
}

func TestBook_ApplySnapshot(t *testing.T) {
	b := newTestBook()
	b.ApplySnapshot(&Snapshot{
		LastUpdateID: 6,
		Bids:         []PriceLevel{lvl("100", "2")},
		Asks:         []PriceLevel{},
	})

	assert.Equal(t, int64(6), b.Cursor())
	bids, asks := b.Top(10)
	require.Len(t, bids, 1)
	assert.True(t, bids[0].Qty.Equal(decimal.RequireFromString("2")))
	assert.Empty(t, asks)
}

func TestBook_ApplySnapshot_DropsZeroQtyLevels(t *testing.T) {
	b := newTestBook()
	b.ApplySnapshot(&Snapshot{
		LastUpdateID: 1,
		Bids:         []PriceLevel{lvl("100", "0"), lvl("99", "1")},
		Asks:         []PriceLevel{},
	})
	bids, _ := b.Top(10)
	require.Len(t, bids, 1)
	assert.True(t, bids[0].Price.Equal(decimal.RequireFromString("99")))
}

func TestBook_ApplyUpdate_Monotonicity(t *testing.T) {
	b := newTestBook()
	b.ApplySnapshot(&Snapshot{LastUpdateID: 5})

	_, err := b.ApplyUpdateLocking(&Update{FirstID: 6, LastID: 6, Bids: []PriceLevel{lvl("100", "1")}})
	require.NoError(t, err)
	assert.Equal(t, int64(6), b.Cursor())

	_, err = b.ApplyUpdateLocking(&Update{FirstID: 7, LastID: 7, Bids: []PriceLevel{lvl("101", "1")}})
	require.NoError(t, err)
	assert.Equal(t, int64(7), b.Cursor())
}

func TestBook_ApplyUpdate_NonNegativeQuantities(t *testing.T) {
	b := newTestBook()
	b.ApplySnapshot(&Snapshot{LastUpdateID: 0})

	_, err := b.ApplyUpdateLocking(&Update{
		FirstID: 1, LastID: 1,
		Bids: []PriceLevel{lvl("100", "5"), lvl("99", "0")},
	})
	require.NoError(t, err)

	bids, _ := b.Top(10)
	for _, level := range bids {
		assert.True(t, level.Qty.IsPositive())
	}
}

func TestBook_ApplyUpdate_StaleIsNoOp(t *testing.T) {
	b := newTestBook()
	b.ApplySnapshot(&Snapshot{LastUpdateID: 10})

	res, err := b.ApplyUpdateLocking(&Update{FirstID: 5, LastID: 10, Bids: []PriceLevel{lvl("1", "1")}})
	require.NoError(t, err)
	assert.Equal(t, StaleAccepted, res)
	assert.Equal(t, int64(10), b.Cursor())
	bids, asks := b.Top(10)
	assert.Empty(t, bids)
	assert.Empty(t, asks)
}

func TestBook_ApplyUpdate_GapLeavesBookUnchanged(t *testing.T) {
	b := newTestBook()
	b.ApplySnapshot(&Snapshot{LastUpdateID: 10, Bids: []PriceLevel{lvl("100", "1")}})

	_, err := b.ApplyUpdateLocking(&Update{FirstID: 12, LastID: 15, Bids: []PriceLevel{lvl("200", "1")}})
	var gapErr *GapError
	require.Error(t, err)
	require.ErrorAs(t, err, &gapErr)
	assert.Equal(t, int64(1), gapErr.Gap())
	assert.Equal(t, int64(10), b.Cursor())

	bids, _ := b.Top(10)
	require.Len(t, bids, 1)
	assert.True(t, bids[0].Price.Equal(decimal.RequireFromString("100")))
}

func TestBook_ApplyUpdate_StraddleAppliesVerbatim(t *testing.T) {
	b := newTestBook()
	b.ApplySnapshot(&Snapshot{LastUpdateID: 100})

	res, err := b.ApplyUpdateLocking(&Update{
		FirstID: 99, LastID: 102,
		Bids: []PriceLevel{lvl("50", "3")},
	})
	require.NoError(t, err)
	assert.Equal(t, Ok, res)
	assert.Equal(t, int64(102), b.Cursor())
}

func TestBook_ApplyUpdate_RemovesZeroQtyLevel(t *testing.T) {
	b := newTestBook()
	b.ApplySnapshot(&Snapshot{LastUpdateID: 1, Bids: []PriceLevel{lvl("99", "3")}})

	_, err := b.ApplyUpdateLocking(&Update{FirstID: 2, LastID: 2, Bids: []PriceLevel{lvl("99", "0")}})
	require.NoError(t, err)

	bids, _ := b.Top(10)
	assert.Empty(t, bids)
}
