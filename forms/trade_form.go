package forms

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	chicks "github.com/chicksfi/chicks-sdk"
)

// SubmitFunc performs the mutating operation behind a form, e.g. a
// gateway buy or an aggregator swap.
type SubmitFunc func(ctx context.Context, amount string) (common.Hash, error)

// TradeForm validates input and invokes a mutating operation on submit,
// exposing in-flight state so the UI can show "Processing...". Only one
// submission runs at a time; a second Submit while one is in flight is
// rejected locally.
type TradeForm struct {
	decimals int
	submit   SubmitFunc

	mu         sync.Mutex
	processing bool
}

// NewTradeForm creates a form around the given submit operation.
func NewTradeForm(decimals int, submit SubmitFunc) *TradeForm {
	return &TradeForm{decimals: decimals, submit: submit}
}

// Processing reports whether a submission is in flight.
func (f *TradeForm) Processing() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.processing
}

// Submit validates amount and runs the operation. Validation failures are
// returned before any network call.
func (f *TradeForm) Submit(ctx context.Context, amount string) (common.Hash, error) {
	if _, err := chicks.ParseUnits(amount, f.decimals); err != nil {
		return common.Hash{}, err
	}

	f.mu.Lock()
	if f.processing {
		f.mu.Unlock()
		return common.Hash{}, chicks.NewError(chicks.ErrCodeRequestPending,
			"A transaction is already being processed.", nil)
	}
	f.processing = true
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.processing = false
		f.mu.Unlock()
	}()

	return f.submit(ctx, amount)
}
