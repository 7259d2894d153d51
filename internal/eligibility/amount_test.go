package eligibility

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr error
	}{
		{in: "100.0", want: "100000000000000000000"},
		{in: "0.000000000000000001", want: "1"},
		{in: "1.50", want: "1500000000000000000"},
		{in: "1.0000000000000000000", want: "1000000000000000000"},
		{in: " 7 ", want: "7000000000000000000"},
		{in: "0.0000000000000000001", wantErr: ErrTooPrecise},
		{in: "-1", wantErr: ErrNegativeAmount},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}

	_, err := ParseAmount("abc")
	assert.Error(t, err)
}

func TestFromWei_Exact(t *testing.T) {
	wei, ok := new(big.Int).SetString("123456789012345678901", 10)
	require.True(t, ok)
	assert.Equal(t, "123.456789012345678901", FromWei(wei).String())
	assert.True(t, FromWei(nil).IsZero())
	assert.Equal(t, wei, ToWei(FromWei(wei)))
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0.0 ELFI"},
		{"100", "100.0 ELFI"},
		{"1234.5", "1,234.5 ELFI"},
		{"1234567.000001", "1,234,567.000001 ELFI"},
		{"99999999999999999999.25", "99,999,999,999,999,999,999.25 ELFI"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatAmount(decimal.RequireFromString(tt.in)), tt.in)
	}
}
