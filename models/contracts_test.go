package models

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContractsToCrypto(t *testing.T) {
	// 3 contracts of 100 USD each at 8000 USD per BTC
	got := ContractsToCrypto(
		decimal.NewFromInt(3),
		decimal.NewFromInt(8000),
		decimal.NewFromInt(100),
	)
	assert.True(t, decimal.RequireFromString("0.0375").Equal(got), "got %s", got)
}

func TestCryptoToContracts(t *testing.T) {
	got, err := CryptoToContracts(
		decimal.RequireFromString("0.0375"),
		decimal.NewFromInt(8000),
		decimal.NewFromInt(100),
	)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(3).Equal(got), "got %s", got)
}

func TestCryptoToContractsTruncates(t *testing.T) {
	// 0.04 BTC at 8000 is 3.2 contracts, partial contracts cannot trade
	got, err := CryptoToContracts(
		decimal.RequireFromString("0.04"),
		decimal.NewFromInt(8000),
		decimal.NewFromInt(100),
	)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(3).Equal(got), "got %s", got)
}

func TestCryptoToContractsTooSmall(t *testing.T) {
	_, err := CryptoToContracts(
		decimal.RequireFromString("0.0001"),
		decimal.NewFromInt(8000),
		decimal.NewFromInt(100),
	)
	assert.True(t, errors.Is(err, ErrAmountTooSmall))
}

func TestContractConversionRoundTrip(t *testing.T) {
	price := decimal.NewFromInt(8000)
	unit := decimal.NewFromInt(100)
	for n := int64(1); n <= 10; n++ {
		crypto := ContractsToCrypto(decimal.NewFromInt(n), price, unit)
		back, err := CryptoToContracts(crypto, price, unit)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(n).Equal(back), "n=%d got %s", n, back)
	}
}
