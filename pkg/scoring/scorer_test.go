package scoring

import (
	"testing"

	"github.com/blackhole-labs/arbforge/pkg/money"
	"github.com/stretchr/testify/assert"
)

// Concrete scenario from spec.md §8: score 80, ttl 10s, age 5s -> decayed
// 60.0 (+-0.1). factor = 1 - (5/10)*0.5 = 0.75; 80*0.75 = 60.
func TestApplyDecay_MatchesScenario(t *testing.T) {
	decayed := ApplyDecay(money.NewFromInt(80), money.NewFromInt(5), money.NewFromInt(10))
	diff := decayed.Sub(money.NewFromInt(60)).Abs()
	assert.True(t, diff.LessThanOrEqual(money.NewFromString("0.1")), "got %s", decayed)
}

func TestApplyDecay_NeverNegative(t *testing.T) {
	decayed := ApplyDecay(money.NewFromInt(80), money.NewFromInt(1000), money.NewFromInt(10))
	assert.True(t, decayed.IsZero() || decayed.IsPositive())
}

func TestApplyDecay_ZeroTTLYieldsZero(t *testing.T) {
	decayed := ApplyDecay(money.NewFromInt(80), money.NewFromInt(1), money.Zero)
	assert.True(t, decayed.IsZero())
}

func addrFor(hex string) money.Address { return money.MustParseAddress(hex) }

func TestScore_HigherSpreadYieldsHigherScore(t *testing.T) {
	s := New(DefaultWeights(), DefaultThresholds(), nil, nil)
	pair := addrFor("0x1900000000000000000000000000000000000001")

	low := s.Score(pair, money.NewFromInt(10), SkewGreen)
	high := s.Score(pair, money.NewFromInt(100), SkewGreen)
	assert.True(t, high.GreaterThan(low), "low=%s high=%s", low, high)
}

func TestScore_RedSkewLowersScore(t *testing.T) {
	s := New(DefaultWeights(), DefaultThresholds(), nil, nil)
	pair := addrFor("0x1900000000000000000000000000000000000002")

	green := s.Score(pair, money.NewFromInt(50), SkewGreen)
	red := s.Score(pair, money.NewFromInt(50), SkewRed)
	assert.True(t, green.GreaterThan(red))
}

func TestScore_ClippedToHundred(t *testing.T) {
	s := New(DefaultWeights(), DefaultThresholds(), nil, nil)
	pair := addrFor("0x1900000000000000000000000000000000000003")
	score := s.Score(pair, money.NewFromInt(1_000_000), SkewGreen)
	assert.True(t, score.LessThanOrEqual(money.NewFromInt(100)))
}

type stubHistory struct {
	ratio   money.Decimal
	samples int
}

func (s stubHistory) SuccessRatio(money.Address) (money.Decimal, int) { return s.ratio, s.samples }

func TestScore_UsesHistoryWhenEnoughSamples(t *testing.T) {
	hist := stubHistory{ratio: money.NewFromInt(1), samples: 20}
	s := New(DefaultWeights(), DefaultThresholds(), nil, hist)
	pair := addrFor("0x1900000000000000000000000000000000000004")

	withPerfectHistory := s.Score(pair, money.NewFromInt(50), SkewGreen)

	noHist := New(DefaultWeights(), DefaultThresholds(), nil, stubHistory{samples: 0})
	withoutHistory := noHist.Score(pair, money.NewFromInt(50), SkewGreen)

	assert.True(t, withPerfectHistory.GreaterThan(withoutHistory))
}
