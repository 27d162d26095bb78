// Package forms holds the UI-adjacent state machines: debounced quote
// recalculation and validate-then-submit wiring. They own no protocol
// logic; everything hard lives behind the gateway and aggregator.
package forms

import (
	"context"
	"math/big"
	"sync"
	"time"

	chicks "github.com/chicksfi/chicks-sdk"
)

// DefaultQuoteDebounce is the quiet period applied to keystroke-driven
// quote recalculation.
const DefaultQuoteDebounce = 400 * time.Millisecond

// Quoter produces a quote for an input amount.
type Quoter interface {
	Quote(ctx context.Context, amount *big.Int) (*chicks.QuoteResult, error)
}

// QuoteFunc adapts a function to the Quoter interface.
type QuoteFunc func(ctx context.Context, amount *big.Int) (*chicks.QuoteResult, error)

func (f QuoteFunc) Quote(ctx context.Context, amount *big.Int) (*chicks.QuoteResult, error) {
	return f(ctx, amount)
}

// QuoteForm debounces user input and fetches quotes for it. Quotes
// superseded by newer input are dropped, not cancelled: the in-flight
// request simply loses the race and its result is discarded.
type QuoteForm struct {
	quoter   Quoter
	debounce time.Duration
	decimals int
	onResult func(*chicks.QuoteResult, error)

	mu    sync.Mutex
	seq   uint64
	timer *time.Timer
}

// NewQuoteForm creates a form. onResult receives each quote (or error)
// that is still current when it arrives; debounce <= 0 uses the default.
func NewQuoteForm(quoter Quoter, decimals int, debounce time.Duration, onResult func(*chicks.QuoteResult, error)) *QuoteForm {
	if debounce <= 0 {
		debounce = DefaultQuoteDebounce
	}
	return &QuoteForm{
		quoter:   quoter,
		debounce: debounce,
		decimals: decimals,
		onResult: onResult,
	}
}

// SetAmount feeds a new input value. Malformed input is reported through
// onResult immediately, without a network call; valid input schedules a
// quote after the debounce window.
func (f *QuoteForm) SetAmount(ctx context.Context, amount string) {
	units, err := chicks.ParseUnits(amount, f.decimals)

	f.mu.Lock()
	f.seq++
	seq := f.seq
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	f.mu.Unlock()

	if err != nil {
		f.onResult(nil, err)
		return
	}

	f.mu.Lock()
	f.timer = time.AfterFunc(f.debounce, func() {
		quote, err := f.quoter.Quote(ctx, units)

		f.mu.Lock()
		current := f.seq == seq
		f.mu.Unlock()
		if current {
			f.onResult(quote, err)
		}
	})
	f.mu.Unlock()
}

// Close stops any pending recalculation.
func (f *QuoteForm) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
}
