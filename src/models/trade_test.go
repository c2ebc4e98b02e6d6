package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputePips(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		trade    Trade
		expected float64
	}{
		{
			name: "eurusd_buy",
			trade: Trade{
				Symbol:     "EURUSD",
				Type:       TradeTypeBuy,
				EntryPrice: 1.1000,
				ExitPrice:  1.1050,
			},
			expected: 50.0,
		},
		{
			name: "eurusd_sell_same_distance",
			trade: Trade{
				Symbol:     "EURUSD",
				Type:       TradeTypeSell,
				EntryPrice: 1.1050,
				ExitPrice:  1.1000,
			},
			expected: 50.0,
		},
		{
			name: "usdjpy_uses_hundred_multiplier",
			trade: Trade{
				Symbol:     "USDJPY",
				Type:       TradeTypeBuy,
				EntryPrice: 110.00,
				ExitPrice:  110.50,
			},
			expected: 50.0,
		},
		{
			name: "losing_buy_is_negative",
			trade: Trade{
				Symbol:     "GBPUSD",
				Type:       TradeTypeBuy,
				EntryPrice: 1.2500,
				ExitPrice:  1.2480,
			},
			expected: -20.0,
		},
		{
			name: "rounded_to_one_decimal",
			trade: Trade{
				Symbol:     "EURUSD",
				Type:       TradeTypeBuy,
				EntryPrice: 1.10000,
				ExitPrice:  1.10057,
			},
			expected: 5.7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.expected, tt.trade.ComputePips(), 1e-9)
		})
	}
}

func TestComputePnLSimple(t *testing.T) {
	t.Parallel()

	buy := Trade{Symbol: "EURUSD", Type: TradeTypeBuy, EntryPrice: 1.1000, ExitPrice: 1.1050, Size: 10}
	assert.InDelta(t, 5.0, buy.ComputePnL(), 1e-9)

	sell := Trade{Symbol: "EURUSD", Type: TradeTypeSell, EntryPrice: 1.1000, ExitPrice: 1.1050, Size: 10}
	assert.InDelta(t, -5.0, sell.ComputePnL(), 1e-9)
}

func TestComputePnLWithPartialExits(t *testing.T) {
	t.Parallel()

	trade := Trade{
		Symbol:     "EURUSD",
		Type:       TradeTypeBuy,
		EntryPrice: 1.0000,
		Size:       10,
		Exits: []Exit{
			{Percentage: 50, Price: 1.0050},
			{Percentage: 50, Price: 1.0100},
		},
	}

	assert.InDelta(t, 1.0075, trade.EffectiveExitPrice(), 1e-9)
	assert.InDelta(t, 7.5, trade.ComputePnL(), 1e-9)
}

func TestComputePnLPartialExitsWithRemainder(t *testing.T) {
	t.Parallel()

	// 40% closed at 1.0050, the remaining 60% at the top-level exit price.
	trade := Trade{
		Symbol:     "EURUSD",
		Type:       TradeTypeBuy,
		EntryPrice: 1.0000,
		ExitPrice:  1.0100,
		Size:       10,
		Exits: []Exit{
			{Percentage: 40, Price: 1.0050},
		},
	}

	// 0.005 * 4 * 100 + 0.010 * 6 * 100 = 2 + 6
	assert.InDelta(t, 8.0, trade.ComputePnL(), 1e-9)
	assert.InDelta(t, 0.4*1.0050+0.6*1.0100, trade.EffectiveExitPrice(), 1e-9)
}

func TestComputeRMultiple(t *testing.T) {
	t.Parallel()

	stop := 1.0900
	trade := Trade{
		Symbol:     "EURUSD",
		Type:       TradeTypeBuy,
		EntryPrice: 1.1000,
		ExitPrice:  1.1200,
		Size:       10,
		StopLoss:   &stop,
	}
	// Risk = 0.01 * 10 * 100 = 10 per R.
	assert.InDelta(t, 2.0, trade.ComputeRMultiple(20), 1e-9)

	noStop := Trade{Symbol: "EURUSD", Type: TradeTypeBuy, EntryPrice: 1.1, Size: 10}
	assert.Zero(t, noStop.ComputeRMultiple(20))

	zeroDistance := trade
	same := 1.1000
	zeroDistance.StopLoss = &same
	assert.Zero(t, zeroDistance.ComputeRMultiple(20))
}

func TestPipMultiplier(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 100.0, PipMultiplier("USDJPY"))
	assert.Equal(t, 100.0, PipMultiplier("eurjpy"))
	assert.Equal(t, 10000.0, PipMultiplier("EURUSD"))
	assert.Equal(t, 10000.0, PipMultiplier("XAUUSD"))
}

func TestAccountApplyPnL(t *testing.T) {
	t.Parallel()

	a := Account{Balance: 1000, Equity: 1000}
	a.ApplyPnL(250)
	assert.Equal(t, 1250.0, a.Balance)
	assert.Equal(t, 1250.0, a.Equity)

	a.ApplyPnL(-300)
	assert.Equal(t, 950.0, a.Balance)
	assert.Equal(t, 950.0, a.Equity)

	a.SetBalance(500)
	assert.Equal(t, 500.0, a.Balance)
	assert.Equal(t, 500.0, a.Equity)
}
