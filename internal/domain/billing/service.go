package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"github.com/rs/zerolog/log"

	"github.com/wordsmith/wordsmith-api/internal/domain/ledger"
	"github.com/wordsmith/wordsmith-api/internal/domain/purchase"
	"github.com/wordsmith/wordsmith-api/internal/pkg/paygate"
)

// Config holds checkout redirect targets
type Config struct {
	SuccessURL string
	CancelURL  string
}

// Service is the purchase reconciliation engine. It turns an external
// "payment completed" signal into exactly one ledger append, no matter how
// many triggers report it or in what order. Mutual exclusion lives entirely
// in the storage layer (the conditional status flip and the ledger's
// uniqueness on purchase id); triggers run in independent processes, so an
// in-process lock could not coordinate them.
type Service struct {
	purchases *purchase.Repository
	ledger    *ledger.Repository
	gateway   Gateway
	cfg       Config
}

// NewService creates the reconciliation engine
func NewService(purchases *purchase.Repository, ledgerRepo *ledger.Repository, gateway Gateway, cfg Config) *Service {
	return &Service{
		purchases: purchases,
		ledger:    ledgerRepo,
		gateway:   gateway,
		cfg:       cfg,
	}
}

// InitCheckout starts a purchase attempt. The purchase id is minted before
// the provider call so it can ride along in the session metadata; the
// pending row is stored only after the provider accepted the session.
func (s *Service) InitCheckout(ctx context.Context, userID uuid.UUID, packageID string) (*CheckoutSession, error) {
	pkg, ok := PackageByID(packageID)
	if !ok {
		return nil, ErrUnknownPackage
	}

	purchaseID := uuid.New()

	session, err := s.gateway.CreateSession(ctx, paygate.CreateSessionRequest{
		AmountCents: pkg.AmountCents,
		Currency:    "usd",
		Reference:   purchaseID.String(),
		Description: fmt.Sprintf("%s package: %d credits", pkg.Name, pkg.Credits),
		SuccessURL:  s.cfg.SuccessURL,
		CancelURL:   s.cfg.CancelURL,
		Metadata: map[string]string{
			"purchase_id": purchaseID.String(),
			"package_id":  pkg.ID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	meta, _ := json.Marshal(map[string]string{"package_id": pkg.ID})
	p := &purchase.Purchase{
		ID:                purchaseID,
		UserID:            userID,
		ExternalSessionID: session.SessionID,
		AmountCents:       pkg.AmountCents,
		CreditsPurchased:  pkg.Credits,
		Metadata:          types.JSONText(meta),
	}
	if err := s.purchases.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("%w: store purchase: %v", ErrStorage, err)
	}

	log.Info().
		Str("purchase_id", purchaseID.String()).
		Str("session_id", session.SessionID).
		Str("package_id", pkg.ID).
		Msg("checkout session created")

	return &CheckoutSession{
		PurchaseID:  purchaseID,
		SessionID:   session.SessionID,
		CheckoutURL: session.CheckoutURL,
		Credits:     pkg.Credits,
		AmountCents: pkg.AmountCents,
	}, nil
}

// Reconcile applies a confirmed external payment to the ledger exactly once.
//
// Any trigger may call it any number of times, in any order. The paid status
// is only a cached projection; the purchase-type ledger row is the true
// idempotency key, so a crash between the append and the status flip is
// repaired on the next call instead of double-crediting.
func (s *Service) Reconcile(ctx context.Context, sessionID string, trust TrustLevel, requestingUserID uuid.UUID, confirm ConfirmFunc) (*ReconcileResult, error) {
	p, err := s.purchases.GetByExternalSessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, purchase.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: load purchase: %v", ErrStorage, err)
	}

	if trust == TrustUser && p.UserID != requestingUserID {
		return nil, ErrForbidden
	}

	// Idempotency fast path: already applied, report without writing.
	if p.IsPaid() {
		return s.alreadyApplied(ctx, p)
	}

	settled, paymentID, err := confirm(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("confirm payment: %w", err)
	}
	if !settled {
		log.Info().Str("session_id", sessionID).Msg("payment not settled yet, purchase stays pending")
		return nil, ErrPaymentNotComplete
	}

	// Crash-consistency guard: a previous attempt may have appended the
	// ledger row and died before flipping the status. The row's existence
	// decides; the status is only retried.
	if existing, err := s.ledger.FindByPurchaseID(ctx, p.ID); err == nil {
		if err := s.markPaid(ctx, p, paymentID, trust); err != nil {
			return nil, err
		}
		log.Warn().
			Str("purchase_id", p.ID.String()).
			Str("transaction_id", existing.ID.String()).
			Msg("found ledger entry for pending purchase, repaired status without re-crediting")
		return &ReconcileResult{
			Credited:      false,
			CreditsAdded:  p.CreditsPurchased,
			TransactionID: existing.ID.String(),
		}, nil
	} else if !errors.Is(err, ledger.ErrNotFound) {
		return nil, fmt.Errorf("%w: probe ledger: %v", ErrStorage, err)
	}

	t, err := s.ledger.AppendPurchase(ctx, p.UserID, p.CreditsPurchased, p.ID, sessionID, paymentID,
		fmt.Sprintf("Purchase of %d credits", p.CreditsPurchased))
	if err != nil {
		if errors.Is(err, ledger.ErrDuplicatePurchaseTx) {
			// A concurrent caller won the append between our probe and
			// insert. Fall back to the fast-path response.
			if err := s.markPaid(ctx, p, paymentID, trust); err != nil {
				return nil, err
			}
			return s.alreadyApplied(ctx, p)
		}
		return nil, fmt.Errorf("%w: append transaction: %v", ErrStorage, err)
	}

	if err := s.markPaid(ctx, p, paymentID, trust); err != nil {
		return nil, err
	}

	log.Info().
		Str("purchase_id", p.ID.String()).
		Str("user_id", p.UserID.String()).
		Int("credits", p.CreditsPurchased).
		Str("transaction_id", t.ID.String()).
		Msg("purchase reconciled, credits applied")

	return &ReconcileResult{
		Credited:      true,
		CreditsAdded:  p.CreditsPurchased,
		TransactionID: t.ID.String(),
	}, nil
}

// markPaid retries the conditional flip; losing the race is success
func (s *Service) markPaid(ctx context.Context, p *purchase.Purchase, paymentID string, trust TrustLevel) error {
	patch, _ := json.Marshal(map[string]string{"reconciled_by": string(trust)})
	_, err := s.purchases.TransitionToPaid(ctx, p.ID, paymentID, types.JSONText(patch))
	if err != nil && !errors.Is(err, purchase.ErrAlreadyPaid) {
		return fmt.Errorf("%w: mark purchase paid: %v", ErrStorage, err)
	}
	return nil
}

// alreadyApplied builds the fast-path response for an applied purchase
func (s *Service) alreadyApplied(ctx context.Context, p *purchase.Purchase) (*ReconcileResult, error) {
	result := &ReconcileResult{
		Credited:     false,
		CreditsAdded: p.CreditsPurchased,
	}

	t, err := s.ledger.FindByPurchaseID(ctx, p.ID)
	switch {
	case err == nil:
		result.TransactionID = t.ID.String()
	case errors.Is(err, ledger.ErrNotFound):
		// Paid purchase without a ledger row violates the invariant;
		// surface it loudly but keep the read path available.
		log.Error().Str("purchase_id", p.ID.String()).Msg("paid purchase has no ledger entry")
	default:
		return nil, fmt.Errorf("%w: load transaction: %v", ErrStorage, err)
	}

	return result, nil
}

// ConfirmFromGateway re-derives settlement from the provider's session
// state. Used for user-trust triggers, which must never be believed about
// their own success.
func (s *Service) ConfirmFromGateway(ctx context.Context, sessionID string) (bool, string, error) {
	session, err := s.gateway.GetSession(ctx, sessionID)
	if err != nil {
		return false, "", err
	}
	return session.Settled(), session.PaymentID, nil
}

// ConfirmFromEvent trusts an already signature-verified webhook event
func ConfirmFromEvent(event *paygate.WebhookEvent) ConfirmFunc {
	return func(ctx context.Context, sessionID string) (bool, string, error) {
		settled := event.Type == paygate.EventSessionCompleted && event.SessionID == sessionID
		return settled, event.PaymentID, nil
	}
}
