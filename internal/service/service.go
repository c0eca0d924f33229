package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"linkmart/internal/infrastructure/boostpanel"
	"linkmart/internal/infrastructure/paystack"
	"linkmart/internal/repository"
	"linkmart/pkg/apperr"
)

// PaymentGateway is the slice of the Paystack client the ledger depends on.
type PaymentGateway interface {
	Initialize(ctx context.Context, req paystack.InitializeRequest) (*paystack.InitializeResult, error)
	Verify(ctx context.Context, reference string) (*paystack.Verification, error)
	VerifySignature(body []byte, signature string) bool
}

// BoostProvider places and tracks automatic boost orders.
type BoostProvider interface {
	Services(ctx context.Context) ([]boostpanel.ServiceInfo, error)
	AddOrder(ctx context.Context, serviceID, link string, quantity int64) (string, error)
	OrderStatus(ctx context.Context, orderID string) (*boostpanel.OrderStatus, error)
}

// translate turns repository sentinels into client-facing errors.
func translate(err error, notFoundMsg string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrBalanceNotEnough):
		return apperr.InsufficientFunds("insufficient balance")
	case errors.Is(err, repository.ErrUserNotFound):
		return apperr.NotFound("user not found")
	case errors.Is(err, repository.ErrCampaignNotFound),
		errors.Is(err, repository.ErrBoostNotFound),
		errors.Is(err, repository.ErrServiceNotFound),
		errors.Is(err, repository.ErrListingNotFound),
		errors.Is(err, repository.ErrProductNotFound),
		errors.Is(err, repository.ErrDepositNotFound),
		errors.Is(err, repository.ErrTransactionNotFound):
		return apperr.NotFound(notFoundMsg)
	case errors.Is(err, repository.ErrStatusConflict):
		return apperr.Conflict("status transition not allowed from the current state")
	case errors.Is(err, repository.ErrEmailTaken):
		return apperr.Conflict("email already registered")
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperr.Internal("internal server error", err)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// withTimeout bounds an outbound call; a zero d leaves ctx unbounded.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
