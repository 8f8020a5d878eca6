package escrow

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-market-triggers/internal/domain"
	"github.com/go-market-triggers/internal/pkg/id"
	pkgtoken "github.com/go-market-triggers/internal/pkg/token"
	"github.com/go-market-triggers/internal/pkg/validate"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldStatus       = "status"
	fieldEscrowStatus = "escrow_status"
	fieldSafetyCode   = "safety_code"
	fieldDispute      = "dispute"
)

type Service interface {
	Create(ctx context.Context, req domain.CreateTransactionRequest) (*domain.Transaction, error)
	Get(ctx context.Context, transactionID string) (*domain.Transaction, error)
	ListForUser(ctx context.Context, userID string) ([]domain.Transaction, error)
	// UpdateStatus merge-writes status, and escrowStatus only when given.
	// Reachability from the current status is not checked; use Advance for that.
	UpdateStatus(ctx context.Context, transactionID string, status domain.TransactionStatus, escrow *domain.EscrowStatus) error
	Advance(ctx context.Context, transactionID string, to domain.TransactionStatus) (*domain.Transaction, error)
	HoldPayment(ctx context.Context, transactionID string) (*domain.Transaction, error)
	OpenDispute(ctx context.Context, transactionID, openedBy, reason string) (*domain.Transaction, error)
	VerifySafetyCode(ctx context.Context, transactionID, code string) (bool, error)
}

type transactionStore interface {
	Create(ctx context.Context, t *domain.Transaction) error
	Get(ctx context.Context, transactionID string) (*domain.Transaction, error)
	ListByParticipant(ctx context.Context, userID string) ([]domain.Transaction, error)
	Update(ctx context.Context, transactionID string, updates map[string]interface{}) error
	// UpdateIfStatus applies updates only while the stored status equals expected.
	UpdateIfStatus(ctx context.Context, transactionID string, expected domain.TransactionStatus, updates map[string]interface{}) error
}

type service struct {
	repo   transactionStore
	now    func() time.Time
	logger *slog.Logger
}

func NewService(repo transactionStore, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &service{repo: repo, now: func() time.Time { return time.Now().UTC() }, logger: logger}
}

func (s *service) Create(ctx context.Context, req domain.CreateTransactionRequest) (*domain.Transaction, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	if err := req.Amount.Validate(); err != nil {
		return nil, err
	}
	if err := req.ValidateTradeDetails(); err != nil {
		return nil, err
	}
	now := s.now()
	t := &domain.Transaction{
		TransactionID: id.New(),
		ListingID:     req.ListingID,
		BuyerID:       req.BuyerID,
		SellerID:      req.SellerID,
		TradeType:     req.TradeType,
		Status:        domain.StatusPendingPayment,
		EscrowStatus:  domain.EscrowPendingPayment,
		Amount:        req.Amount,
		Currency:      strings.ToUpper(req.Currency),
		Meetup:        req.Meetup,
		Delivery:      req.Delivery,
		Locker:        req.Locker,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Info("transaction created", "transaction_id", t.TransactionID, "listing_id", t.ListingID, "trade_type", t.TradeType)
	return t, nil
}

func (s *service) Get(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	return s.repo.Get(ctx, transactionID)
}

func (s *service) ListForUser(ctx context.Context, userID string) ([]domain.Transaction, error) {
	return s.repo.ListByParticipant(ctx, userID)
}

func (s *service) UpdateStatus(ctx context.Context, transactionID string, status domain.TransactionStatus, escrow *domain.EscrowStatus) error {
	if err := checkKnown(status, escrow); err != nil {
		return err
	}
	updates := map[string]interface{}{fieldStatus: status}
	if escrow != nil {
		updates[fieldEscrowStatus] = *escrow
	}
	return s.repo.Update(ctx, transactionID, updates)
}

func (s *service) Advance(ctx context.Context, transactionID string, to domain.TransactionStatus) (*domain.Transaction, error) {
	if to == domain.StatusPaidHeld {
		return s.HoldPayment(ctx, transactionID)
	}
	if to == domain.StatusDisputed {
		return nil, fmt.Errorf("disputes carry a reason, use OpenDispute: %w", domain.ErrInvalidArgument)
	}
	t, err := s.repo.Get(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(t.TradeType, t.Status, to) {
		return nil, fmt.Errorf("%s -> %s for %s trade: %w", t.Status, to, t.TradeType, ErrIllegalTransition)
	}
	updates := map[string]interface{}{fieldStatus: to}
	if escrow, ok := impliedEscrow(to); ok {
		updates[fieldEscrowStatus] = escrow
		t.EscrowStatus = escrow
	}
	if err := s.repo.UpdateIfStatus(ctx, transactionID, t.Status, updates); err != nil {
		return nil, err
	}
	s.logger.Info("transaction advanced", "transaction_id", transactionID, "from", t.Status, "to", to)
	t.Status = to
	return t, nil
}

// HoldPayment records that the buyer's payment is held and issues the
// safety code the buyer shows at handoff.
func (s *service) HoldPayment(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	t, err := s.repo.Get(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(t.TradeType, t.Status, domain.StatusPaidHeld) {
		return nil, fmt.Errorf("%s -> %s: %w", t.Status, domain.StatusPaidHeld, ErrIllegalTransition)
	}
	code, err := pkgtoken.NewSafetyCode()
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{
		fieldStatus:       domain.StatusPaidHeld,
		fieldEscrowStatus: domain.EscrowPaidHeld,
		fieldSafetyCode:   code,
	}
	if err := s.repo.UpdateIfStatus(ctx, transactionID, t.Status, updates); err != nil {
		return nil, err
	}
	s.logger.Info("payment held", "transaction_id", transactionID)
	t.Status, t.EscrowStatus, t.SafetyCode = domain.StatusPaidHeld, domain.EscrowPaidHeld, code
	return t, nil
}

// OpenDispute moves the trade to disputed and leaves the escrow status as it is.
func (s *service) OpenDispute(ctx context.Context, transactionID, openedBy, reason string) (*domain.Transaction, error) {
	t, err := s.repo.Get(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if !t.IsParticipant(openedBy) {
		return nil, fmt.Errorf("only trade participants may dispute: %w", domain.ErrForbidden)
	}
	if !CanTransition(t.TradeType, t.Status, domain.StatusDisputed) {
		return nil, fmt.Errorf("%s -> %s: %w", t.Status, domain.StatusDisputed, ErrIllegalTransition)
	}
	d := &domain.Dispute{OpenedBy: openedBy, Reason: reason, OpenedAt: s.now()}
	updates := map[string]interface{}{fieldStatus: domain.StatusDisputed, fieldDispute: d}
	if err := s.repo.UpdateIfStatus(ctx, transactionID, t.Status, updates); err != nil {
		return nil, err
	}
	s.logger.Info("dispute opened", "transaction_id", transactionID, "opened_by", openedBy)
	t.Status, t.Dispute = domain.StatusDisputed, d
	return t, nil
}

// VerifySafetyCode reports whether code matches the stored safety code
// exactly. It has no side effects; releasing the escrow is a separate step.
func (s *service) VerifySafetyCode(ctx context.Context, transactionID, code string) (bool, error) {
	t, err := s.repo.Get(ctx, transactionID)
	if err != nil {
		return false, err
	}
	if t.SafetyCode == "" {
		return false, nil
	}
	ok := subtle.ConstantTimeCompare([]byte(t.SafetyCode), []byte(code)) == 1
	if !ok {
		s.logger.Warn("safety code mismatch", "transaction_id", transactionID)
	}
	return ok, nil
}
