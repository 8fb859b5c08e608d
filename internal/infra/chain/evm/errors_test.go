package evm

import (
	"errors"
	"testing"

	"github.com/vietddude/merchantloader/internal/submit"
)

func TestClassifyTxError(t *testing.T) {
	tests := []struct {
		msg  string
		want error
	}{
		{"replacement transaction underpriced", submit.ErrPriceTooLow},
		{"transaction underpriced: tip needed 1, tip permitted 0", submit.ErrPriceTooLow},
		{"gas price too low", submit.ErrPriceTooLow},
		{"nonce too low", submit.ErrStaleNonce},
		{"Invalid nonce", submit.ErrStaleNonce},
		{"insufficient funds for gas * price + value", nil},
		{"execution reverted", nil},
	}

	for _, tt := range tests {
		err := ClassifyTxError(errors.New(tt.msg))
		for _, sentinel := range []error{submit.ErrPriceTooLow, submit.ErrStaleNonce} {
			if got := errors.Is(err, sentinel); got != (sentinel == tt.want) {
				t.Errorf("ClassifyTxError(%q) is %v = %v", tt.msg, sentinel, got)
			}
		}
	}

	if ClassifyTxError(nil) != nil {
		t.Error("nil must stay nil")
	}
}
