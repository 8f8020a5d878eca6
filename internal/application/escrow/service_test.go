package escrow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-market-triggers/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockTransactionStore struct{ mock.Mock }

func (m *mockTransactionStore) Create(ctx context.Context, t *domain.Transaction) error {
	return m.Called(ctx, t).Error(0)
}
func (m *mockTransactionStore) Get(ctx context.Context, id string) (*domain.Transaction, error) {
	args := m.Called(ctx, id)
	if t, _ := args.Get(0).(*domain.Transaction); t != nil {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockTransactionStore) ListByParticipant(ctx context.Context, userID string) ([]domain.Transaction, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Transaction), args.Error(1)
}
func (m *mockTransactionStore) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	return m.Called(ctx, id, updates).Error(0)
}
func (m *mockTransactionStore) UpdateIfStatus(ctx context.Context, id string, expected domain.TransactionStatus, updates map[string]interface{}) error {
	return m.Called(ctx, id, expected, updates).Error(0)
}

func meetupRequest() domain.CreateTransactionRequest {
	return domain.CreateTransactionRequest{
		ListingID: "l1",
		BuyerID:   "buyer",
		SellerID:  "seller",
		TradeType: domain.TradeMeetup,
		Amount:    domain.Amount{Item: 100, Shipping: 0, PlatformFee: 5, Total: 105},
		Currency:  "krw",
		Meetup:    &domain.MeetupDetails{Place: "Gangnam station exit 3"},
	}
}

func TestCreate_StartsPendingPayment(t *testing.T) {
	store := &mockTransactionStore{}
	store.On("Create", mock.Anything, mock.AnythingOfType("*domain.Transaction")).Return(nil)

	tx, err := NewService(store, nil).Create(context.Background(), meetupRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, tx.TransactionID)
	assert.Equal(t, domain.StatusPendingPayment, tx.Status)
	assert.Equal(t, domain.EscrowPendingPayment, tx.EscrowStatus)
	assert.Equal(t, "KRW", tx.Currency)
	assert.Empty(t, tx.SafetyCode)
	store.AssertExpectations(t)
}

func TestCreate_RejectsBadTotal(t *testing.T) {
	store := &mockTransactionStore{}
	req := meetupRequest()
	req.Amount.Total = 104

	_, err := NewService(store, nil).Create(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreate_RejectsMismatchedPayload(t *testing.T) {
	store := &mockTransactionStore{}
	req := meetupRequest()
	req.Meetup = nil
	req.Delivery = &domain.DeliveryDetails{Address: "Seoul"}

	_, err := NewService(store, nil).Create(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreate_RejectsSelfTrade(t *testing.T) {
	store := &mockTransactionStore{}
	req := meetupRequest()
	req.SellerID = req.BuyerID

	_, err := NewService(store, nil).Create(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
}

func TestUpdateStatus_OmitsEscrowWhenAbsent(t *testing.T) {
	store := &mockTransactionStore{}
	store.On("Update", mock.Anything, "t1", map[string]interface{}{"status": domain.StatusShipped}).Return(nil)

	err := NewService(store, nil).UpdateStatus(context.Background(), "t1", domain.StatusShipped, nil)
	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestUpdateStatus_WritesBothWhenEscrowGiven(t *testing.T) {
	store := &mockTransactionStore{}
	escrow := domain.EscrowReleased
	store.On("Update", mock.Anything, "t1", map[string]interface{}{
		"status":        domain.StatusReleased,
		"escrow_status": domain.EscrowReleased,
	}).Return(nil)

	err := NewService(store, nil).UpdateStatus(context.Background(), "t1", domain.StatusReleased, &escrow)
	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestUpdateStatus_UnknownStatus(t *testing.T) {
	store := &mockTransactionStore{}

	err := NewService(store, nil).UpdateStatus(context.Background(), "t1", "teleported", nil)
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
	store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdvance_IllegalTransition(t *testing.T) {
	store := &mockTransactionStore{}
	store.On("Get", mock.Anything, "t1").Return(&domain.Transaction{
		TransactionID: "t1", TradeType: domain.TradeMeetup, Status: domain.StatusPendingPayment,
	}, nil)

	_, err := NewService(store, nil).Advance(context.Background(), "t1", domain.StatusReleased)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIllegalTransition))
	assert.True(t, errors.Is(err, domain.ErrConflict))
	store.AssertNotCalled(t, "UpdateIfStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAdvance_ReleaseSettlesEscrow(t *testing.T) {
	store := &mockTransactionStore{}
	store.On("Get", mock.Anything, "t1").Return(&domain.Transaction{
		TransactionID: "t1", TradeType: domain.TradeMeetup, Status: domain.StatusBuyerConfirmed,
		EscrowStatus: domain.EscrowPaidHeld,
	}, nil)
	store.On("UpdateIfStatus", mock.Anything, "t1", domain.StatusBuyerConfirmed, map[string]interface{}{
		"status":        domain.StatusReleased,
		"escrow_status": domain.EscrowReleased,
	}).Return(nil)

	tx, err := NewService(store, nil).Advance(context.Background(), "t1", domain.StatusReleased)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReleased, tx.Status)
	assert.Equal(t, domain.EscrowReleased, tx.EscrowStatus)
	store.AssertExpectations(t)
}

func TestAdvance_ConcurrentChangeSurfaces(t *testing.T) {
	store := &mockTransactionStore{}
	store.On("Get", mock.Anything, "t1").Return(&domain.Transaction{
		TransactionID: "t1", TradeType: domain.TradeDelivery, Status: domain.StatusPaidHeld,
	}, nil)
	store.On("UpdateIfStatus", mock.Anything, "t1", domain.StatusPaidHeld, mock.Anything).Return(domain.ErrConflict)

	_, err := NewService(store, nil).Advance(context.Background(), "t1", domain.StatusShipped)
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestAdvance_DisputeNeedsReason(t *testing.T) {
	store := &mockTransactionStore{}

	_, err := NewService(store, nil).Advance(context.Background(), "t1", domain.StatusDisputed)
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
	store.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestHoldPayment_IssuesSafetyCode(t *testing.T) {
	store := &mockTransactionStore{}
	store.On("Get", mock.Anything, "t1").Return(&domain.Transaction{
		TransactionID: "t1", TradeType: domain.TradeMeetup,
		Status: domain.StatusPendingPayment, EscrowStatus: domain.EscrowPendingPayment,
	}, nil)
	store.On("UpdateIfStatus", mock.Anything, "t1", domain.StatusPendingPayment, mock.MatchedBy(func(u map[string]interface{}) bool {
		code, _ := u["safety_code"].(string)
		return u["status"] == domain.StatusPaidHeld && u["escrow_status"] == domain.EscrowPaidHeld && len(code) == 4
	})).Return(nil)

	tx, err := NewService(store, nil).HoldPayment(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaidHeld, tx.Status)
	assert.Equal(t, domain.EscrowPaidHeld, tx.EscrowStatus)
	assert.Regexp(t, `^\d{4}$`, tx.SafetyCode)
	store.AssertExpectations(t)
}

func TestHoldPayment_AlreadyHeld(t *testing.T) {
	store := &mockTransactionStore{}
	store.On("Get", mock.Anything, "t1").Return(&domain.Transaction{
		TransactionID: "t1", TradeType: domain.TradeMeetup, Status: domain.StatusPaidHeld,
	}, nil)

	_, err := NewService(store, nil).HoldPayment(context.Background(), "t1")
	assert.True(t, errors.Is(err, ErrIllegalTransition))
}

func TestOpenDispute_LeavesEscrowUntouched(t *testing.T) {
	store := &mockTransactionStore{}
	store.On("Get", mock.Anything, "t1").Return(&domain.Transaction{
		TransactionID: "t1", TradeType: domain.TradeDelivery, BuyerID: "buyer", SellerID: "seller",
		Status: domain.StatusShipped, EscrowStatus: domain.EscrowPaidHeld,
	}, nil)
	store.On("UpdateIfStatus", mock.Anything, "t1", domain.StatusShipped, mock.MatchedBy(func(u map[string]interface{}) bool {
		_, touchesEscrow := u["escrow_status"]
		d, _ := u["dispute"].(*domain.Dispute)
		return !touchesEscrow && u["status"] == domain.StatusDisputed && d != nil && d.Reason == "never arrived"
	})).Return(nil)

	svc := NewService(store, nil).(*service)
	svc.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	tx, err := svc.OpenDispute(context.Background(), "t1", "buyer", "never arrived")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDisputed, tx.Status)
	assert.Equal(t, domain.EscrowPaidHeld, tx.EscrowStatus)
	assert.Equal(t, "buyer", tx.Dispute.OpenedBy)
	store.AssertExpectations(t)
}

func TestOpenDispute_Outsider(t *testing.T) {
	store := &mockTransactionStore{}
	store.On("Get", mock.Anything, "t1").Return(&domain.Transaction{
		TransactionID: "t1", BuyerID: "buyer", SellerID: "seller", Status: domain.StatusShipped,
	}, nil)

	_, err := NewService(store, nil).OpenDispute(context.Background(), "t1", "stranger", "spite")
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

func TestVerifySafetyCode(t *testing.T) {
	store := &mockTransactionStore{}
	store.On("Get", mock.Anything, "t1").Return(&domain.Transaction{
		TransactionID: "t1", Status: domain.StatusMeetupScheduled, SafetyCode: "0427",
	}, nil)
	svc := NewService(store, nil)

	ok, err := svc.VerifySafetyCode(context.Background(), "t1", "0427")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.VerifySafetyCode(context.Background(), "t1", "427")
	require.NoError(t, err)
	assert.False(t, ok)

	store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "UpdateIfStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifySafetyCode_NoCodeIssued(t *testing.T) {
	store := &mockTransactionStore{}
	store.On("Get", mock.Anything, "t1").Return(&domain.Transaction{TransactionID: "t1"}, nil)

	ok, err := NewService(store, nil).VerifySafetyCode(context.Background(), "t1", "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGet_NotFound(t *testing.T) {
	store := &mockTransactionStore{}
	store.On("Get", mock.Anything, "missing").Return(nil, domain.ErrNotFound)

	_, err := NewService(store, nil).Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
