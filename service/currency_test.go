package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrencyFormatter(t *testing.T) {
	tests := []struct {
		code, locale, display string
		amount                string
		want                  string
	}{
		{"USD", "en", "iso", "70.75", "USD 70.75"},
		{"USD", "en", "symbol", "70.75", "$ 70.75"},
		{"usd", "en", "narrow", "5.2", "$ 5.20"},
		{"EUR", "en", "symbol", "9", "€ 9.00"},
		{"JPY", "en", "iso", "15.4", "JPY 15"},
	}
	for _, tt := range tests {
		t.Run(tt.code+"/"+tt.display, func(t *testing.T) {
			f, err := NewCurrencyFormatter(tt.code, tt.locale, tt.display)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.Format(dec(tt.amount)))
		})
	}
}

func TestCurrencyFormatter_Plain(t *testing.T) {
	f, err := NewCurrencyFormatter("USD", "en", "iso")
	require.NoError(t, err)
	assert.Equal(t, "USD", f.Code())
	assert.Equal(t, "70.76", f.Plain(dec("70.755")))
	assert.Equal(t, "20.00", f.Plain(dec("20")))
}

func TestCurrencyFormatter_Invalid(t *testing.T) {
	_, err := NewCurrencyFormatter("NOPE", "en", "iso")
	assert.Error(t, err)
	_, err = NewCurrencyFormatter("USD", "en", "loud")
	assert.Error(t, err)
}
