package submit

import (
	"errors"
	"math/big"
	"testing"
)

func TestBumpGasPrice(t *testing.T) {
	tests := []struct {
		price  int64
		factor float64
		want   int64
	}{
		{1000, 1.10, 1100},
		{1100, 1.10, 1210},
		{1210, 1.10, 1331},
		{1_000_000_000, 1.10, 1_100_000_000},
		{0, 1.10, 1},
		{1, 1.10, 2},
		{10, 1.5, 15},
	}

	for _, tt := range tests {
		got := bumpGasPrice(big.NewInt(tt.price), tt.factor)
		if got.Int64() != tt.want {
			t.Errorf("bumpGasPrice(%d, %v) = %s, want %d", tt.price, tt.factor, got, tt.want)
		}
	}
}

func TestSequencer_BumpCeiling(t *testing.T) {
	s := NewSequencer([20]byte{})
	s.gasPrice = big.NewInt(1000)
	ceiling := big.NewInt(1050)

	if err := s.BumpGasPrice(1.10, ceiling); err != nil {
		t.Fatalf("first bump: %v", err)
	}
	if s.GasPrice().Int64() != 1050 {
		t.Errorf("gas price = %s, want clamped 1050", s.GasPrice())
	}

	err := s.BumpGasPrice(1.10, ceiling)
	if !errors.Is(err, ErrGasPriceCeiling) {
		t.Errorf("second bump err = %v, want ErrGasPriceCeiling", err)
	}
}

func TestSequencer_GasPriceIsCopied(t *testing.T) {
	s := NewSequencer([20]byte{})
	s.gasPrice = big.NewInt(5)

	p := s.GasPrice()
	p.SetInt64(99)
	if s.GasPrice().Int64() != 5 {
		t.Error("GasPrice leaked internal state")
	}
}

func TestSequencer_ClampGasPrice(t *testing.T) {
	tests := []struct {
		price   int64
		ceiling *big.Int
		want    int64
		clamped bool
	}{
		{5000, big.NewInt(1000), 1000, true},
		{1000, big.NewInt(1000), 1000, false},
		{900, big.NewInt(1000), 900, false},
		{5000, nil, 5000, false},
	}

	for _, tt := range tests {
		s := NewSequencer([20]byte{})
		s.gasPrice = big.NewInt(tt.price)
		if got := s.ClampGasPrice(tt.ceiling); got != tt.clamped {
			t.Errorf("ClampGasPrice(%d, %v) = %v, want %v", tt.price, tt.ceiling, got, tt.clamped)
		}
		if s.GasPrice().Int64() != tt.want {
			t.Errorf("price %d: gas price = %s, want %d", tt.price, s.GasPrice(), tt.want)
		}
	}
}
