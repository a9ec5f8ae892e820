package orderbook

import (
	"testing"
	"time"

	"github.com/blackhole-labs/arbforge/pkg/money"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) money.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func lvl(price, qty string) Level {
	return Level{Price: d(price), Qty: d(qty)}
}

func sampleBook(t *testing.T) Book {
	t.Helper()
	b, err := New("ETHUSDT", time.Unix(0, 0),
		[]Level{lvl("1999", "5"), lvl("1998", "3")},
		[]Level{lvl("2001", "1"), lvl("2002", "2")},
	)
	require.NoError(t, err)
	return b
}

func TestNew_RejectsEmptySide(t *testing.T) {
	_, err := New("ETHUSDT", time.Unix(0, 0), nil, []Level{lvl("2001", "1")})
	assert.Error(t, err)
}

func TestNew_RejectsNonMonotonicBids(t *testing.T) {
	_, err := New("ETHUSDT", time.Unix(0, 0),
		[]Level{lvl("1998", "3"), lvl("1999", "5")}, // ascending, should be descending
		[]Level{lvl("2001", "1")},
	)
	assert.Error(t, err)
}

func TestNew_RejectsCrossedBook(t *testing.T) {
	_, err := New("ETHUSDT", time.Unix(0, 0),
		[]Level{lvl("2005", "5")},
		[]Level{lvl("2001", "1")}, // best_ask < best_bid
	)
	assert.Error(t, err)
}

// Concrete scenario from spec.md §8: asks [(2001,1),(2002,2)]; buying 2
// consumes two levels, avg = (2001*1 + 2002*1)/2 = 2001.5.
func TestWalkTheBook_ExactScenario(t *testing.T) {
	b := sampleBook(t)
	res, err := b.WalkTheBook(Buy, d("2"))
	require.NoError(t, err)

	assert.True(t, res.AvgPrice.Equal(d("2001.5")), "got %s", res.AvgPrice)
	assert.True(t, res.FullyFilled)
	assert.Equal(t, 2, res.LevelsConsumed)
	assert.True(t, res.TotalCost.Equal(d("2001").Add(d("2002"))))
}

// Testable property 4: fills sizes sum to min(q, total_side_liquidity).
func TestWalkTheBook_FillsSumToMinQtyLiquidity(t *testing.T) {
	b := sampleBook(t)

	for _, qty := range []string{"0.5", "1", "3", "10"} {
		res, err := b.WalkTheBook(Buy, d(qty))
		require.NoError(t, err)

		total := money.Zero
		for _, f := range res.Fills {
			total = total.Add(f.Qty)
		}
		totalLiquidity := b.TotalLiquidity(Buy)
		want := d(qty)
		if want.GreaterThan(totalLiquidity) {
			want = totalLiquidity
		}
		assert.True(t, total.Equal(want), "qty=%s got=%s want=%s", qty, total, want)
		assert.Equal(t, want.Equal(d(qty)), res.FullyFilled)
	}
}

func TestWalkTheBook_RejectsNonPositiveQty(t *testing.T) {
	b := sampleBook(t)
	_, err := b.WalkTheBook(Buy, d("0"))
	assert.Error(t, err)
}

func TestDepthAtBps_SumsWithinBand(t *testing.T) {
	b := sampleBook(t)
	// Asks: best=2001. 50 bps band -> bound = 2001*1.005 = 2011.005, both
	// levels (2001, 2002) fall within it.
	depth := b.DepthAtBps(Buy, 50)
	assert.True(t, depth.Equal(d("3")), "got %s", depth)

	// A tiny band excludes the second ask level.
	narrow := b.DepthAtBps(Buy, 1)
	assert.True(t, narrow.Equal(d("1")), "got %s", narrow)
}

func TestImbalance_ZeroWhenBothSidesEmpty(t *testing.T) {
	// Imbalance is defined as 0 when the denominator is 0; exercised
	// directly since Book itself refuses empty sides at construction.
	empty := Book{}
	assert.True(t, empty.Imbalance(5).IsZero())
}

func TestImbalance_BidHeavyIsPositive(t *testing.T) {
	b := sampleBook(t)
	// bid qty (5+3=8) > ask qty (1+2=3) -> positive imbalance.
	imb := b.Imbalance(2)
	assert.True(t, imb.IsPositive(), "got %s", imb)
	expected := d("8").Sub(d("3")).Div(d("8").Add(d("3")))
	assert.True(t, imb.Equal(expected))
}

func TestEffectiveSpread_PositiveForCrossedWalk(t *testing.T) {
	b := sampleBook(t)
	spread, err := b.EffectiveSpread(d("1"))
	require.NoError(t, err)
	assert.True(t, spread.IsPositive(), "got %s", spread)
}
