// Package escrow drives the lifecycle of peer-to-peer trades whose payment
// is held in trust until handoff.
package escrow

import (
	"fmt"

	"github.com/go-market-triggers/internal/domain"
)

// ErrIllegalTransition is returned by Advance for a move the table forbids.
var ErrIllegalTransition = fmt.Errorf("illegal status transition: %w", domain.ErrConflict)

// fulfillment is the trade-type specific pair of states between payment hold
// and release.
type fulfillment struct {
	started   domain.TransactionStatus
	completed domain.TransactionStatus
}

var fulfillments = map[domain.TradeType]fulfillment{
	domain.TradeMeetup:   {started: domain.StatusMeetupScheduled, completed: domain.StatusBuyerConfirmed},
	domain.TradeDelivery: {started: domain.StatusShipped, completed: domain.StatusDelivered},
	domain.TradeLocker:   {started: domain.StatusLockerReserved, completed: domain.StatusPickedUp},
}

// forward lists the trade-type independent moves.
var forward = map[domain.TransactionStatus][]domain.TransactionStatus{
	domain.StatusInitiated:      {domain.StatusPendingPayment},
	domain.StatusPendingPayment: {domain.StatusPaidHeld},
	domain.StatusDelivered:      {domain.StatusBuyerConfirmed, domain.StatusReleased},
	domain.StatusPickedUp:       {domain.StatusReleased},
	domain.StatusBuyerConfirmed: {domain.StatusReleased},
	domain.StatusDisputed:       {domain.StatusReleased},
}

// sideBranches are reachable from every non-terminal state.
var sideBranches = map[domain.TransactionStatus]bool{
	domain.StatusCancelled: true,
	domain.StatusDisputed:  true,
	domain.StatusRefunded:  true,
}

var knownStatuses = map[domain.TransactionStatus]bool{
	domain.StatusInitiated: true, domain.StatusPendingPayment: true, domain.StatusPaidHeld: true,
	domain.StatusMeetupScheduled: true, domain.StatusShipped: true, domain.StatusLockerReserved: true,
	domain.StatusDelivered: true, domain.StatusPickedUp: true, domain.StatusBuyerConfirmed: true,
	domain.StatusReleased: true, domain.StatusCancelled: true, domain.StatusDisputed: true,
	domain.StatusRefunded: true,
}

var knownEscrow = map[domain.EscrowStatus]bool{
	domain.EscrowPendingPayment: true, domain.EscrowPaidHeld: true,
	domain.EscrowReleased: true, domain.EscrowRefunded: true,
}

// CanTransition reports whether a trade of type tt may move from -> to.
func CanTransition(tt domain.TradeType, from, to domain.TransactionStatus) bool {
	if from == to || from.Terminal() || !knownStatuses[to] {
		return false
	}
	if sideBranches[to] {
		return true
	}
	f, ok := fulfillments[tt]
	if !ok {
		return false
	}
	switch from {
	case domain.StatusPaidHeld:
		return to == f.started
	case f.started:
		return to == f.completed
	}
	for _, next := range forward[from] {
		if next == to {
			return true
		}
	}
	return false
}

// impliedEscrow is the escrow status a validated transition settles on, if any.
func impliedEscrow(to domain.TransactionStatus) (domain.EscrowStatus, bool) {
	switch to {
	case domain.StatusPaidHeld:
		return domain.EscrowPaidHeld, true
	case domain.StatusReleased:
		return domain.EscrowReleased, true
	case domain.StatusRefunded:
		return domain.EscrowRefunded, true
	}
	return "", false
}

func checkKnown(status domain.TransactionStatus, escrow *domain.EscrowStatus) error {
	if !knownStatuses[status] {
		return fmt.Errorf("unknown status %q: %w", status, domain.ErrInvalidArgument)
	}
	if escrow != nil && !knownEscrow[*escrow] {
		return fmt.Errorf("unknown escrow status %q: %w", *escrow, domain.ErrInvalidArgument)
	}
	return nil
}

// Party names who may request a move on a trade.
type Party int

const (
	// PartyOperator moves are settlements; no participant may request them.
	PartyOperator Party = iota
	PartyBuyer
	PartySeller
	PartyEither
)

var requesters = map[domain.TransactionStatus]Party{
	domain.StatusPendingPayment:  PartyBuyer,
	domain.StatusPaidHeld:        PartyBuyer,
	domain.StatusMeetupScheduled: PartyEither,
	domain.StatusShipped:         PartySeller,
	domain.StatusLockerReserved:  PartySeller,
	domain.StatusDelivered:       PartySeller,
	domain.StatusPickedUp:        PartyBuyer,
	domain.StatusBuyerConfirmed:  PartyBuyer,
	domain.StatusReleased:        PartyBuyer,
	domain.StatusCancelled:       PartyEither,
	domain.StatusDisputed:        PartyEither,
	domain.StatusRefunded:        PartyOperator,
}

// RequesterOf returns the party allowed to request a move into to.
func RequesterOf(to domain.TransactionStatus) Party {
	return requesters[to]
}

// MayRequest reports whether userID may ask for t to move into to. Only the
// buyer hands money to the seller, and once payment is held a participant
// can no longer cancel; refunds are settled by an operator.
func MayRequest(t *domain.Transaction, userID string, to domain.TransactionStatus) bool {
	switch RequesterOf(to) {
	case PartyBuyer:
		return userID != "" && userID == t.BuyerID
	case PartySeller:
		return userID != "" && userID == t.SellerID
	case PartyEither:
		if to == domain.StatusCancelled && t.EscrowStatus != domain.EscrowPendingPayment {
			return false
		}
		return t.IsParticipant(userID)
	}
	return false
}
