package evm

import (
	"fmt"
	"strings"

	"github.com/vietddude/merchantloader/internal/submit"
)

// Node error messages (geth, erigon, reth, op-geth) that map onto the
// submitter's transient conditions.
var (
	underpricedPatterns = []string{
		"replacement transaction underpriced",
		"transaction underpriced",
		"fee too low",
		"gas price too low",
	}
	staleNoncePatterns = []string{
		"nonce too low",
		"invalid nonce",
	}
	alreadyKnownPatterns = []string{
		"already known",
		"known transaction",
		"already imported",
	}
)

// ClassifyTxError wraps a broadcast error with submit.ErrPriceTooLow or
// submit.ErrStaleNonce when the node's message matches. Other errors are
// returned unchanged.
func ClassifyTxError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, underpricedPatterns):
		return fmt.Errorf("%w: %w", submit.ErrPriceTooLow, err)
	case containsAny(msg, staleNoncePatterns):
		return fmt.Errorf("%w: %w", submit.ErrStaleNonce, err)
	default:
		return err
	}
}

func isAlreadyKnown(err error) bool {
	return containsAny(strings.ToLower(err.Error()), alreadyKnownPatterns)
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
