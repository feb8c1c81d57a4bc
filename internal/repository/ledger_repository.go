package repository

import "context"

// LedgerRepository defines the per-event capacity ledger: an ordered
// membership set whose rank decides whether a claim is within capacity.
// Membership means "this user currently holds a provisional claim";
// winning entries are kept as the durable claim-order record of the run.
type LedgerRepository interface {
	// AddIfAbsent atomically adds the user to the event's ledger with the
	// given score (claim timestamp in milliseconds). Returns false when
	// the user is already a member; the existing score is left untouched.
	AddIfAbsent(ctx context.Context, eventID, userID string, score int64) (bool, error)

	// Rank returns the user's 0-based position ordered by ascending
	// score. ok is false when the user is not a ledger member.
	Rank(ctx context.Context, eventID, userID string) (rank int64, ok bool, err error)

	// Remove deletes the user's provisional claim, freeing the slot
	Remove(ctx context.Context, eventID, userID string) error
}
