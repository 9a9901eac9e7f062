package money_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"ChocoStore/pkg/money"
)

func TestFormat(t *testing.T) {
	cases := map[string]string{
		"0":       "$0.00",
		"1":       "$1.00",
		"15.99":   "$15.99",
		"3.45":    "$3.45",
		"2.39985": "$2.40",
	}
	for in, want := range cases {
		assert.Equal(t, want, money.Format(money.MustParse(in)), in)
	}
}

func TestPercentAndSum(t *testing.T) {
	rate := money.Percent(15)
	assert.True(t, rate.Equal(decimal.RequireFromString("0.15")))

	got := money.Sum(money.MustParse("1.10"), money.MustParse("2.20"), money.MustParse("0.05"))
	assert.True(t, got.Equal(money.MustParse("3.35")), got.String())
}

func TestRoundOnlyAtDisplay(t *testing.T) {
	third := decimal.NewFromInt(1).Div(decimal.NewFromInt(3))
	sum := third.Add(third).Add(third)

	assert.Equal(t, "$1.00", money.Format(sum))
	assert.True(t, money.Round(third).Equal(money.MustParse("0.33")))
}
