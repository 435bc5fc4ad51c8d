// Package processortest provides an in-memory processor for tests.
package processortest

import (
	"context"
	"fmt"
	"sync"

	"github.com/smallbiznis/tapcard/internal/processor"
)

// Fake implements processor.Client against in-memory state. Authorizations
// behave like Stripe manual-capture intents: captures are one-shot and an
// already-captured intent fails a second capture the way the real processor
// would.
type Fake struct {
	mu      sync.Mutex
	seq     int
	intents map[string]*intentState
	methods map[string]processor.PaymentMethod

	// FailCapture makes the next capture return an upstream error.
	FailCapture bool
}

type intentState struct {
	auth     processor.Authorization
	captured bool
	methodID string
}

func New() *Fake {
	return &Fake{
		intents: make(map[string]*intentState),
		methods: make(map[string]processor.PaymentMethod),
	}
}

// RegisterPaymentMethod seeds the card that subsequent captures will report.
func (f *Fake) RegisterPaymentMethod(method processor.PaymentMethod) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.methods[method.ID] = method
}

// AttachMethod pins the payment method an intent was confirmed with.
func (f *Fake) AttachMethod(intentID, methodID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if state, ok := f.intents[intentID]; ok {
		state.methodID = methodID
	}
}

func (f *Fake) CreateAuthorization(ctx context.Context, amount int64, currency, description string) (*processor.Authorization, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	id := fmt.Sprintf("pi_fake_%d", f.seq)
	auth := processor.Authorization{
		ID:           id,
		ClientSecret: id + "_secret",
		Amount:       amount,
		Currency:     currency,
		Status:       "requires_capture",
	}
	f.intents[id] = &intentState{auth: auth}
	out := auth
	return &out, nil
}

func (f *Fake) UpdateAuthorization(ctx context.Context, id string, amount int64) (*processor.Authorization, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	state, ok := f.intents[id]
	if !ok {
		return nil, &processor.UpstreamError{Provider: "fake", Code: "resource_missing", Message: "no such payment_intent: " + id}
	}
	if state.captured {
		return nil, &processor.UpstreamError{Provider: "fake", Code: "payment_intent_unexpected_state", Message: "intent already captured"}
	}
	state.auth.Amount = amount
	out := state.auth
	return &out, nil
}

func (f *Fake) GetAuthorization(ctx context.Context, id string) (*processor.Authorization, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	state, ok := f.intents[id]
	if !ok {
		return nil, &processor.UpstreamError{Provider: "fake", Code: "resource_missing", Message: "no such payment_intent: " + id}
	}
	out := state.auth
	out.PaymentMethodID = state.methodID
	return &out, nil
}

func (f *Fake) CaptureAuthorization(ctx context.Context, id string, amountToCapture int64) (*processor.CaptureResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailCapture {
		f.FailCapture = false
		return nil, &processor.UpstreamError{Provider: "fake", Code: "card_declined", Message: "capture failed"}
	}

	state, ok := f.intents[id]
	if !ok {
		return nil, &processor.UpstreamError{Provider: "fake", Code: "resource_missing", Message: "no such payment_intent: " + id}
	}
	if state.captured {
		return nil, &processor.UpstreamError{Provider: "fake", Code: "payment_intent_unexpected_state", Message: "intent already captured"}
	}

	captured := state.auth.Amount
	if amountToCapture > 0 {
		if amountToCapture > state.auth.Amount {
			return nil, &processor.UpstreamError{Provider: "fake", Code: "amount_too_large", Message: "amount_to_capture exceeds authorized amount"}
		}
		captured = amountToCapture
	}

	state.captured = true
	state.auth.Status = "succeeded"
	return &processor.CaptureResult{
		ChargeID:        "ch_" + id,
		PaymentMethodID: state.methodID,
		AmountCaptured:  captured,
	}, nil
}

func (f *Fake) GetPaymentMethod(ctx context.Context, id string) (*processor.PaymentMethod, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	method, ok := f.methods[id]
	if !ok {
		return nil, &processor.UpstreamError{Provider: "fake", Code: "resource_missing", Message: "no such payment_method: " + id}
	}
	out := method
	return &out, nil
}
