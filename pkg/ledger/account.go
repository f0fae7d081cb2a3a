package ledger

// Request is a pending money request awaiting acceptance or denial by the
// account that holds it. Requests are plain values with no identity of their
// own: two requests are the same request exactly when requester and amount
// match. Resolving a request therefore consumes the first matching entry in
// the pending list, which is the FIFO tie-break when duplicates exist.
type Request struct {
	Requester string `json:"requester"`
	Amount    int64  `json:"amount"`
}

// AccountData is the externally visible projection of an account. It is an
// independent snapshot: the pending list is always a fresh copy, so callers
// can never reach ledger-internal state through it. Credentials are never
// part of the projection.
type AccountData struct {
	Username        string    `json:"username"`
	Balance         int64     `json:"balance"`
	PendingRequests []Request `json:"pendingRequests"`
}

// account holds one user's state. It is unexported: all access goes through
// the Ledger, which owns the locking discipline. Methods on account assume
// the caller already holds the ledger lock.
type account struct {
	username   string
	credential string
	balance    int64
	pending    []Request
}

func newAccount(username, credential string, balance int64) *account {
	return &account{
		username:   username,
		credential: credential,
		balance:    balance,
	}
}

// validateCredential reports whether candidate matches the stored credential.
// Plain equality: credential strength is out of scope here.
func (a *account) validateCredential(candidate string) bool {
	return a.credential == candidate
}

// pendingCopy returns an independent copy of the pending list. Always
// non-nil so snapshots serialize as [] rather than null.
func (a *account) pendingCopy() []Request {
	out := make([]Request, len(a.pending))
	copy(out, a.pending)
	return out
}

// adjustBalance applies delta to the balance, failing with
// ErrInsufficientFunds if the result would be negative. On failure the
// balance is untouched.
func (a *account) adjustBalance(delta int64) error {
	if a.balance+delta < 0 {
		return ErrInsufficientFunds
	}
	a.balance += delta
	return nil
}

// appendRequest adds req to the end of the pending list.
func (a *account) appendRequest(req Request) {
	a.pending = append(a.pending, req)
}

// findRequest returns the index of the first entry equal to req, or -1.
func (a *account) findRequest(req Request) int {
	for i, r := range a.pending {
		if r == req {
			return i
		}
	}
	return -1
}

// removeRequest removes the first entry equal to req, keeping the order of
// the remainder. Fails with ErrRequestNotFound, mutating nothing, if no
// entry matches.
func (a *account) removeRequest(req Request) error {
	i := a.findRequest(req)
	if i < 0 {
		return ErrRequestNotFound
	}
	a.removeRequestAt(i)
	return nil
}

// removeRequestAt removes the entry at index i, preserving order.
func (a *account) removeRequestAt(i int) {
	a.pending = append(a.pending[:i], a.pending[i+1:]...)
}

// snapshot builds the public projection of the account.
func (a *account) snapshot() AccountData {
	return AccountData{
		Username:        a.username,
		Balance:         a.balance,
		PendingRequests: a.pendingCopy(),
	}
}
