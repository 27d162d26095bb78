package gateway

import (
	"bytes"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"

	chicks "github.com/chicksfi/chicks-sdk"
)

// revertTranslations maps known revert-reason substrings to typed errors
// with actionable messages. Matching on message text is a compatibility
// fallback for contracts without structured error codes; it is isolated
// here so call sites never string-match themselves.
var revertTranslations = []struct {
	match   string // lowercased substring
	code    string
	message string
}{
	{
		match:   "use borrowmore",
		code:    chicks.ErrCodeBorrowMoreRequired,
		message: `You already have an active loan. Please use "Borrow More" instead.`,
	},
	{
		// Matches both "Not enough collateral to close position" and
		// "You do not have enough collateral to close position".
		match:   "enough collateral to close position",
		code:    chicks.ErrCodeInsufficientCollateral,
		message: "You do not have enough collateral to close this position directly.",
	},
	{
		match:   "insufficient collateral",
		code:    chicks.ErrCodeInsufficientCollateral,
		message: "Insufficient collateral for this operation.",
	},
	{
		match:   "arithmetic",
		code:    chicks.ErrCodeContractRevert,
		message: "The contract could not process this amount. Try a slightly different value.",
	},
}

// translateRevert converts a contract-reported error into a typed error,
// logging it at the gateway boundary first. The best available description
// is extracted in reason → message → data preference order.
func (g *Gateway) translateRevert(op string, err error) error {
	reason := revertReason(err)
	g.log.Warn().Err(err).Str("op", op).Str("reason", reason).Msg("contract call failed")

	lowered := strings.ToLower(reason)
	for _, t := range revertTranslations {
		if strings.Contains(lowered, t.match) {
			return chicks.NewError(t.code, t.message, err)
		}
	}
	return chicks.NewError(chicks.ErrCodeContractRevert, reason, err)
}

// revertReason extracts the most specific description available from a
// contract error: the ABI-decoded revert reason when the node attached
// error data, otherwise the error message itself.
func revertReason(err error) string {
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if raw, ok := dataErr.ErrorData().(string); ok {
			if reason := decodeRevertString(raw); reason != "" {
				return reason
			}
		}
	}
	return err.Error()
}

// errorStringSelector is the 4-byte selector of Error(string).
var errorStringSelector = []byte{0x08, 0xc3, 0x79, 0xa0}

// decodeRevertString decodes hex-encoded Error(string) revert data.
// Returns "" when the data is not a standard string revert.
func decodeRevertString(data string) string {
	raw, err := hex.DecodeString(strings.TrimPrefix(data, "0x"))
	if err != nil || len(raw) < 4+32+32 {
		return ""
	}
	if !bytes.Equal(raw[:4], errorStringSelector) {
		return ""
	}

	body := raw[4:]
	length := new(big.Int).SetBytes(body[32:64])
	if !length.IsInt64() {
		return ""
	}
	n := length.Int64()
	if n <= 0 || 64+n > int64(len(body)) {
		return ""
	}
	return string(body[64 : 64+n])
}
