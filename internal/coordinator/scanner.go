package coordinator

//go:generate mockgen -destination=mocks/mock_scanner.go -package=mocks -source=scanner.go Scanner

import (
	"context"

	"nearby_go/internal/store"
)

// Scanner is the radio driver boundary.
type Scanner interface {
	// Start begins scanning. The returned channel yields nil (or is closed)
	// once scanning is up, or an error if it could not start. A nil channel
	// means the start completed synchronously.
	Start(ctx context.Context) <-chan error
	// Stop halts scanning without waiting for it to wind down.
	Stop()
}

// ScannerOptions is the construction-time configuration handed to the
// scanner. Callbacks may be invoked from any goroutine.
type ScannerOptions struct {
	OnUpdate       func(item store.Item)
	OnLost         func(id string)
	OnNetworkError func()
	// ShouldPopulateItem reports whether a sighted URL is new and worth
	// resolving.
	ShouldPopulateItem func(url string) bool
}

// ScannerFactory builds the single scanner the coordinator owns.
type ScannerFactory func(ScannerOptions) Scanner

// ActionSink receives intents for the store.
type ActionSink interface {
	Dispatch(action store.Action)
}

// ItemSource answers membership questions about the current item collection.
type ItemSource interface {
	Has(originalURL string) bool
}
