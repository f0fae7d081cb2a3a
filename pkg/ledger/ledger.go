// Package ledger implements an in-memory account ledger: named accounts
// holding a credential, a non-negative balance, and a FIFO list of pending
// money requests, plus the transfer protocols over them.
//
// Two transfer shapes exist. A Send moves money immediately and atomically.
// A Request is two-phase: initiation appends a pending entry to the
// receiver's account, and the receiver later completes it by accepting
// (money moves) or denying (entry is dropped). Pending requests live until
// explicitly resolved; there is no expiry.
//
// A single RWMutex guards the whole ledger. Every mutating operation runs
// in one critical section, so no caller can observe a half-applied transfer
// and concurrent debits cannot pass the funds check against a stale
// balance. Failure leaves state exactly as it was before the call.
package ledger

import (
	"bank-ledger/pkg/stablesort"
	"sync"
)

// TransferKind selects between the two transfer protocols.
type TransferKind string

const (
	// Send moves money immediately in a single step.
	Send TransferKind = "send"
	// RequestTransfer appends a pending request to the receiver; no money
	// moves until the receiver completes it.
	RequestTransfer TransferKind = "request"
)

// Valid reports whether k is one of the two known kinds.
func (k TransferKind) Valid() bool {
	return k == Send || k == RequestTransfer
}

// Ledger owns the username → account mapping and all cross-account
// orchestration. The zero value is not usable; use New.
type Ledger struct {
	mu       sync.RWMutex
	accounts map[string]*account

	// order records usernames in creation order. Map iteration order is
	// randomized, but the account listing must be deterministic: the stable
	// sort breaks balance ties by enumeration order, so enumeration itself
	// has to be pinned. Accounts are never deleted, so this only grows.
	order []string
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{accounts: make(map[string]*account)}
}

// OpenAccount creates an account with the given starting balance and returns
// its snapshot. Fails with ErrDuplicateAccount if the username is taken and
// ErrInvalidAmount if the starting balance is negative.
func (l *Ledger) OpenAccount(username, credential string, initialBalance int64) (AccountData, error) {
	if initialBalance < 0 {
		return AccountData{}, ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.accounts[username]; exists {
		return AccountData{}, ErrDuplicateAccount
	}

	a := newAccount(username, credential, initialBalance)
	l.accounts[username] = a
	l.order = append(l.order, username)
	return a.snapshot(), nil
}

// Login verifies a credential and returns the account snapshot. Fails with
// ErrAccountNotFound for an unknown username and ErrCredentialMismatch for a
// known username with the wrong credential; callers can and should
// distinguish the two.
func (l *Ledger) Login(username, credential string) (AccountData, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	a, ok := l.accounts[username]
	if !ok {
		return AccountData{}, ErrAccountNotFound
	}
	if !a.validateCredential(credential) {
		return AccountData{}, ErrCredentialMismatch
	}
	return a.snapshot(), nil
}

// HasAccount reports whether an account exists for username.
func (l *Ledger) HasAccount(username string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.accounts[username]
	return ok
}

// InitiateTransfer starts a transfer of amount from sender to receiver and
// returns the sender's balance afterwards.
//
// For Send the debit and credit happen as one atomic step; if the sender
// cannot cover the amount the call fails with ErrInsufficientFunds and
// nothing changes. For RequestTransfer a {sender, amount} entry is appended
// to the receiver's pending list and no balance moves, so the returned
// balance is unchanged.
//
// Both accounts must exist. Rejecting sender == receiver is the caller's
// responsibility; the ledger does not re-derive it.
func (l *Ledger) InitiateTransfer(sender, receiver string, amount int64, kind TransferKind) (int64, error) {
	if amount < 0 {
		return 0, ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	from, ok := l.accounts[sender]
	if !ok {
		return 0, ErrAccountNotFound
	}
	to, ok := l.accounts[receiver]
	if !ok {
		return 0, ErrAccountNotFound
	}

	switch kind {
	case Send:
		if err := from.adjustBalance(-amount); err != nil {
			return 0, err
		}
		// Cannot fail: credits never take a balance negative.
		_ = to.adjustBalance(amount)
	case RequestTransfer:
		to.appendRequest(Request{Requester: sender, Amount: amount})
	default:
		return 0, ErrInvalidAmount
	}

	return from.balance, nil
}

// CompleteRequest resolves a pending request held by responder. The matching
// entry is consumed exactly once whether the request is accepted or denied.
// On accept, responder is debited and the requester credited in the same
// critical section; if responder cannot cover the amount the call fails with
// ErrInsufficientFunds and the request stays in the pending list untouched.
// The funds check runs before the entry is consumed so a failed acceptance
// has no effect at all.
//
// Returns responder's balance and pending-list snapshot after the operation.
func (l *Ledger) CompleteRequest(responder string, req Request, accept bool) (int64, []Request, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	resp, ok := l.accounts[responder]
	if !ok {
		return 0, nil, ErrAccountNotFound
	}
	requester, ok := l.accounts[req.Requester]
	if !ok {
		return 0, nil, ErrAccountNotFound
	}

	i := resp.findRequest(req)
	if i < 0 {
		return 0, nil, ErrRequestNotFound
	}

	if accept {
		if err := resp.adjustBalance(-req.Amount); err != nil {
			return 0, nil, err
		}
		_ = requester.adjustBalance(req.Amount)
	}
	resp.removeRequestAt(i)

	return resp.balance, resp.pendingCopy(), nil
}

// ListAccounts returns a snapshot of every account, sorted by descending
// balance. The sort is stable and accounts are enumerated in creation
// order, so equal balances always appear in the order the accounts were
// opened. Diagnostic use; access control is the caller's concern.
func (l *Ledger) ListAccounts() []AccountData {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]AccountData, 0, len(l.order))
	for _, username := range l.order {
		out = append(out, l.accounts[username].snapshot())
	}

	stablesort.Descending(out, func(a, b AccountData) int {
		switch {
		case a.Balance > b.Balance:
			return 1
		case a.Balance < b.Balance:
			return -1
		default:
			return 0
		}
	})
	return out
}

// Size returns the number of accounts.
func (l *Ledger) Size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.accounts)
}
