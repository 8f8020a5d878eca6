package reaction

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-market-triggers/internal/domain"
	"github.com/go-market-triggers/internal/pkg/id"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ── Mocks ────────────────────────────────────────────────────────────────────

type mockListings struct{ mock.Mock }

func (m *mockListings) Get(ctx context.Context, id string) (*domain.Listing, error) {
	args := m.Called(ctx, id)
	if l, _ := args.Get(0).(*domain.Listing); l != nil {
		return l, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockConversations struct{ mock.Mock }

func (m *mockConversations) Get(ctx context.Context, id string) (*domain.Conversation, error) {
	args := m.Called(ctx, id)
	if c, _ := args.Get(0).(*domain.Conversation); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockWishlists struct{ mock.Mock }

func (m *mockWishlists) ListByListing(ctx context.Context, listingID string) ([]domain.WishlistEntry, error) {
	args := m.Called(ctx, listingID)
	entries, _ := args.Get(0).([]domain.WishlistEntry)
	return entries, args.Error(1)
}

type mockUsers struct{ mock.Mock }

func (m *mockUsers) Get(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockNotifications struct{ mock.Mock }

func (m *mockNotifications) PutIfAbsent(ctx context.Context, n *domain.Notification) (bool, error) {
	args := m.Called(ctx, n)
	return args.Bool(0), args.Error(1)
}

type mockDispatcher struct{ mock.Mock }

func (m *mockDispatcher) Dispatch(ctx context.Context, recipientID string, payload domain.NotificationPayload) error {
	return m.Called(ctx, recipientID, payload).Error(0)
}
func (m *mockDispatcher) DispatchAll(ctx context.Context, recipientIDs []string, payload domain.NotificationPayload) int {
	return m.Called(ctx, recipientIDs, payload).Int(0)
}

type mockIndex struct{ mock.Mock }

func (m *mockIndex) Sync(ctx context.Context, id string, doc domain.Document) error {
	return m.Called(ctx, id, doc).Error(0)
}

type fixture struct {
	listings      *mockListings
	conversations *mockConversations
	wishlists     *mockWishlists
	users         *mockUsers
	notifications *mockNotifications
	dispatch      *mockDispatcher
	index         *mockIndex
	h             *Handlers
}

func newFixture() *fixture {
	f := &fixture{
		listings:      &mockListings{},
		conversations: &mockConversations{},
		wishlists:     &mockWishlists{},
		users:         &mockUsers{},
		notifications: &mockNotifications{},
		dispatch:      &mockDispatcher{},
		index:         &mockIndex{},
	}
	f.h = NewHandlers(Stores{
		Listings:      f.listings,
		Conversations: f.conversations,
		Wishlists:     f.wishlists,
		Users:         f.users,
		Notifications: f.notifications,
	}, f.dispatch, f.index, nil)
	f.h.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return f
}

// ── Message created ──────────────────────────────────────────────────────────

func TestOnMessageCreated_DispatchesToOtherParticipant(t *testing.T) {
	f := newFixture()
	f.conversations.On("Get", mock.Anything, "c1").Return(&domain.Conversation{
		ConversationID: "c1", Participants: []string{"alice", "bob"},
	}, nil)
	f.dispatch.On("Dispatch", mock.Anything, "bob", domain.ChatPayload{
		ConversationID: "c1", MessageID: "m1", SenderID: "alice", Text: "still available?",
	}).Return(nil)

	err := f.h.OnMessageCreated(context.Background(), domain.Message{
		ConversationID: "c1", MessageID: "m1", SenderID: "alice", Text: "still available?",
	})
	require.NoError(t, err)
	f.dispatch.AssertExpectations(t)
}

func TestOnMessageCreated_ConversationMissing(t *testing.T) {
	f := newFixture()
	f.conversations.On("Get", mock.Anything, "c1").Return(nil, domain.ErrNotFound)

	err := f.h.OnMessageCreated(context.Background(), domain.Message{ConversationID: "c1", SenderID: "alice"})
	require.NoError(t, err)
	f.dispatch.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything, mock.Anything)
}

func TestOnMessageCreated_RecipientUndetermined(t *testing.T) {
	cases := map[string][]string{
		"only sender":        {"alice"},
		"sender twice":       {"alice", "alice"},
		"two other parties":  {"alice", "bob", "carol"},
		"empty participants": nil,
	}
	for name, participants := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture()
			f.conversations.On("Get", mock.Anything, "c1").Return(&domain.Conversation{
				ConversationID: "c1", Participants: participants,
			}, nil)

			err := f.h.OnMessageCreated(context.Background(), domain.Message{ConversationID: "c1", SenderID: "alice"})
			require.NoError(t, err)
			f.dispatch.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestOnMessageCreated_StoreErrorPropagates(t *testing.T) {
	f := newFixture()
	f.conversations.On("Get", mock.Anything, "c1").Return(nil, errors.New("throttled"))

	err := f.h.OnMessageCreated(context.Background(), domain.Message{ConversationID: "c1", SenderID: "alice"})
	assert.Error(t, err)
}

// ── Wishlist created ─────────────────────────────────────────────────────────

func TestOnWishlistCreated_SelfLikeIsNoOp(t *testing.T) {
	f := newFixture()
	f.listings.On("Get", mock.Anything, "l1").Return(&domain.Listing{ListingID: "l1", SellerID: "seller"}, nil)

	err := f.h.OnWishlistCreated(context.Background(), domain.WishlistEntry{WishlistID: "w1", UserID: "seller", ListingID: "l1"})
	require.NoError(t, err)
	f.notifications.AssertNotCalled(t, "PutIfAbsent", mock.Anything, mock.Anything)
	f.dispatch.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything, mock.Anything)
}

func TestOnWishlistCreated_ListingMissing(t *testing.T) {
	f := newFixture()
	f.listings.On("Get", mock.Anything, "l1").Return(nil, domain.ErrNotFound)

	err := f.h.OnWishlistCreated(context.Background(), domain.WishlistEntry{WishlistID: "w1", UserID: "liker", ListingID: "l1"})
	require.NoError(t, err)
	f.notifications.AssertNotCalled(t, "PutIfAbsent", mock.Anything, mock.Anything)
}

func TestOnWishlistCreated_RecordThenPush(t *testing.T) {
	f := newFixture()
	f.listings.On("Get", mock.Anything, "l1").Return(&domain.Listing{ListingID: "l1", SellerID: "seller", Title: "Bike"}, nil)
	f.users.On("Get", mock.Anything, "seller").Return(&domain.User{UserID: "seller", Language: domain.LanguageKorean}, nil)

	var order []string
	f.notifications.On("PutIfAbsent", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.NotificationID == id.Derived("like", "w1") &&
			n.UserID == "seller" &&
			n.Type == domain.KindLike &&
			!n.Read &&
			n.Data["listingId"] == "l1" &&
			n.Title != ""
	})).Run(func(mock.Arguments) { order = append(order, "record") }).Return(true, nil)
	f.dispatch.On("Dispatch", mock.Anything, "seller", domain.LikePayload{
		ListingID: "l1", ListingTitle: "Bike", LikerID: "liker",
	}).Run(func(mock.Arguments) { order = append(order, "push") }).Return(nil)

	err := f.h.OnWishlistCreated(context.Background(), domain.WishlistEntry{WishlistID: "w1", UserID: "liker", ListingID: "l1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"record", "push"}, order)
	f.notifications.AssertExpectations(t)
	f.dispatch.AssertExpectations(t)
}

func TestOnWishlistCreated_RecordWrittenEvenWhenPushDisabled(t *testing.T) {
	f := newFixture()
	f.listings.On("Get", mock.Anything, "l1").Return(&domain.Listing{ListingID: "l1", SellerID: "seller"}, nil)
	f.users.On("Get", mock.Anything, "seller").Return(&domain.User{
		UserID: "seller", NotificationSettings: map[string]bool{domain.CapabilityPush: false},
	}, nil)
	f.notifications.On("PutIfAbsent", mock.Anything, mock.Anything).Return(true, nil)
	// The dispatcher owns the gate; the handler always hands the push over.
	f.dispatch.On("Dispatch", mock.Anything, "seller", mock.Anything).Return(nil)

	err := f.h.OnWishlistCreated(context.Background(), domain.WishlistEntry{WishlistID: "w1", UserID: "liker", ListingID: "l1"})
	require.NoError(t, err)
	f.notifications.AssertNumberOfCalls(t, "PutIfAbsent", 1)
}

func TestOnWishlistCreated_RedeliveryKeepsSingleRecord(t *testing.T) {
	f := newFixture()
	f.listings.On("Get", mock.Anything, "l1").Return(&domain.Listing{ListingID: "l1", SellerID: "seller"}, nil)
	f.users.On("Get", mock.Anything, "seller").Return(&domain.User{UserID: "seller"}, nil)

	var ids []string
	f.notifications.On("PutIfAbsent", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { ids = append(ids, args.Get(1).(*domain.Notification).NotificationID) }).
		Return(true, nil).Once()
	f.notifications.On("PutIfAbsent", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { ids = append(ids, args.Get(1).(*domain.Notification).NotificationID) }).
		Return(false, nil).Once()
	f.dispatch.On("Dispatch", mock.Anything, "seller", mock.Anything).Return(nil)

	entry := domain.WishlistEntry{WishlistID: "w1", UserID: "liker", ListingID: "l1"}
	require.NoError(t, f.h.OnWishlistCreated(context.Background(), entry))
	require.NoError(t, f.h.OnWishlistCreated(context.Background(), entry))
	require.Len(t, ids, 2)
	assert.Equal(t, ids[0], ids[1])
}

func TestOnWishlistCreated_RecordFailureStopsPush(t *testing.T) {
	f := newFixture()
	f.listings.On("Get", mock.Anything, "l1").Return(&domain.Listing{ListingID: "l1", SellerID: "seller"}, nil)
	f.users.On("Get", mock.Anything, "seller").Return(&domain.User{UserID: "seller"}, nil)
	f.notifications.On("PutIfAbsent", mock.Anything, mock.Anything).Return(false, errors.New("dynamo down"))

	err := f.h.OnWishlistCreated(context.Background(), domain.WishlistEntry{WishlistID: "w1", UserID: "liker", ListingID: "l1"})
	assert.Error(t, err)
	f.dispatch.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything, mock.Anything)
}

// ── Listing updated ──────────────────────────────────────────────────────────

func TestOnListingUpdated_NoDecreaseNoQuery(t *testing.T) {
	for _, after := range []int64{1000, 1500} {
		f := newFixture()
		err := f.h.OnListingUpdated(context.Background(),
			&domain.Listing{ListingID: "l1", Price: 1000},
			&domain.Listing{ListingID: "l1", Price: after})
		require.NoError(t, err)
		f.wishlists.AssertNotCalled(t, "ListByListing", mock.Anything, mock.Anything)
		f.dispatch.AssertNotCalled(t, "DispatchAll", mock.Anything, mock.Anything, mock.Anything)
	}
}

func TestOnListingUpdated_DistinctLikers(t *testing.T) {
	f := newFixture()
	f.wishlists.On("ListByListing", mock.Anything, "l1").Return([]domain.WishlistEntry{
		{WishlistID: "w1", UserID: "u1"},
		{WishlistID: "w2", UserID: "u2"},
		{WishlistID: "w3", UserID: "u1"},
		{WishlistID: "w4", UserID: "u3"},
	}, nil)
	f.dispatch.On("DispatchAll", mock.Anything, []string{"u1", "u2", "u3"}, domain.PriceDropPayload{
		ListingID: "l1", ListingTitle: "Desk", OldPrice: 20000, NewPrice: 15000, Currency: "KRW",
	}).Return(1)

	err := f.h.OnListingUpdated(context.Background(),
		&domain.Listing{ListingID: "l1", Title: "Desk", Price: 20000, Currency: "KRW"},
		&domain.Listing{ListingID: "l1", Title: "Desk", Price: 15000, Currency: "KRW"})
	require.NoError(t, err, "per-recipient failures are isolated")
	f.dispatch.AssertExpectations(t)
}

func TestOnListingUpdated_NoEntries(t *testing.T) {
	f := newFixture()
	f.wishlists.On("ListByListing", mock.Anything, "l1").Return([]domain.WishlistEntry{}, nil)

	err := f.h.OnListingUpdated(context.Background(),
		&domain.Listing{ListingID: "l1", Price: 2}, &domain.Listing{ListingID: "l1", Price: 1})
	require.NoError(t, err)
	f.dispatch.AssertNotCalled(t, "DispatchAll", mock.Anything, mock.Anything, mock.Anything)
}

func TestOnListingUpdated_QueryErrorPropagates(t *testing.T) {
	f := newFixture()
	f.wishlists.On("ListByListing", mock.Anything, "l1").Return(nil, errors.New("throttled"))

	err := f.h.OnListingUpdated(context.Background(),
		&domain.Listing{ListingID: "l1", Price: 2}, &domain.Listing{ListingID: "l1", Price: 1})
	assert.Error(t, err)
}

// ── Listing written ──────────────────────────────────────────────────────────

func TestOnListingWritten_DelegatesToIndex(t *testing.T) {
	f := newFixture()
	doc := domain.Document{"title": "Lamp"}
	f.index.On("Sync", mock.Anything, "l1", doc).Return(nil)
	f.index.On("Sync", mock.Anything, "l2", domain.Document(nil)).Return(errors.New("index responded 503"))

	require.NoError(t, f.h.OnListingWritten(context.Background(), "l1", doc))
	assert.Error(t, f.h.OnListingWritten(context.Background(), "l2", nil))
	f.index.AssertExpectations(t)
}
