package ledger

import (
	"errors"
	"sync"
	"testing"
)

func openTestAccount(t *testing.T, l *Ledger, username string, balance int64) {
	t.Helper()
	if _, err := l.OpenAccount(username, "pw-"+username, balance); err != nil {
		t.Fatalf("OpenAccount(%q) failed: %v", username, err)
	}
}

func balanceOf(t *testing.T, l *Ledger, username string) int64 {
	t.Helper()
	data, err := l.Login(username, "pw-"+username)
	if err != nil {
		t.Fatalf("Login(%q) failed: %v", username, err)
	}
	return data.Balance
}

func pendingOf(t *testing.T, l *Ledger, username string) []Request {
	t.Helper()
	data, err := l.Login(username, "pw-"+username)
	if err != nil {
		t.Fatalf("Login(%q) failed: %v", username, err)
	}
	return data.PendingRequests
}

func TestLedger_OpenAccount(t *testing.T) {
	l := New()

	data, err := l.OpenAccount("alice", "secret", 100)
	if err != nil {
		t.Fatalf("OpenAccount failed: %v", err)
	}
	if data.Username != "alice" {
		t.Errorf("Expected username alice, got %q", data.Username)
	}
	if data.Balance != 100 {
		t.Errorf("Expected balance 100, got %d", data.Balance)
	}
	if len(data.PendingRequests) != 0 {
		t.Errorf("Expected empty pending list, got %v", data.PendingRequests)
	}
	if !l.HasAccount("alice") {
		t.Error("Expected HasAccount(alice) to be true")
	}
	if l.HasAccount("bob") {
		t.Error("Expected HasAccount(bob) to be false")
	}
}

func TestLedger_OpenAccount_Duplicate(t *testing.T) {
	l := New()
	openTestAccount(t, l, "alice", 100)

	_, err := l.OpenAccount("alice", "other", 500)
	if !errors.Is(err, ErrDuplicateAccount) {
		t.Fatalf("Expected ErrDuplicateAccount, got %v", err)
	}

	// The original account must be untouched.
	if got := balanceOf(t, l, "alice"); got != 100 {
		t.Errorf("Expected original balance 100, got %d", got)
	}
}

func TestLedger_OpenAccount_NegativeBalance(t *testing.T) {
	l := New()
	if _, err := l.OpenAccount("alice", "secret", -1); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("Expected ErrInvalidAmount, got %v", err)
	}
	if l.HasAccount("alice") {
		t.Error("Account must not exist after a failed open")
	}
}

func TestLedger_Login(t *testing.T) {
	l := New()
	openTestAccount(t, l, "alice", 100)

	data, err := l.Login("alice", "pw-alice")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if data.Balance != 100 {
		t.Errorf("Expected balance 100, got %d", data.Balance)
	}

	// Unknown user and wrong credential are distinct failures.
	if _, err := l.Login("mallory", "pw"); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("Expected ErrAccountNotFound for unknown user, got %v", err)
	}
	if _, err := l.Login("alice", "wrong"); !errors.Is(err, ErrCredentialMismatch) {
		t.Errorf("Expected ErrCredentialMismatch for wrong credential, got %v", err)
	}
}

func TestLedger_Send(t *testing.T) {
	l := New()
	openTestAccount(t, l, "alice", 100)
	openTestAccount(t, l, "bob", 100)

	newBalance, err := l.InitiateTransfer("alice", "bob", 30, Send)
	if err != nil {
		t.Fatalf("InitiateTransfer failed: %v", err)
	}
	if newBalance != 70 {
		t.Errorf("Expected sender balance 70, got %d", newBalance)
	}
	if got := balanceOf(t, l, "alice"); got != 70 {
		t.Errorf("Expected alice balance 70, got %d", got)
	}
	if got := balanceOf(t, l, "bob"); got != 130 {
		t.Errorf("Expected bob balance 130, got %d", got)
	}
}

func TestLedger_Send_Conservation(t *testing.T) {
	l := New()
	openTestAccount(t, l, "alice", 75)
	openTestAccount(t, l, "bob", 25)

	before := balanceOf(t, l, "alice") + balanceOf(t, l, "bob")
	if _, err := l.InitiateTransfer("alice", "bob", 40, Send); err != nil {
		t.Fatalf("InitiateTransfer failed: %v", err)
	}
	after := balanceOf(t, l, "alice") + balanceOf(t, l, "bob")
	if before != after {
		t.Errorf("Send must conserve total balance: before=%d after=%d", before, after)
	}
}

func TestLedger_Send_InsufficientFunds(t *testing.T) {
	l := New()
	openTestAccount(t, l, "alice", 10)
	openTestAccount(t, l, "bob", 100)

	_, err := l.InitiateTransfer("alice", "bob", 11, Send)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("Expected ErrInsufficientFunds, got %v", err)
	}

	// No partial effect on failure.
	if got := balanceOf(t, l, "alice"); got != 10 {
		t.Errorf("Expected alice balance 10, got %d", got)
	}
	if got := balanceOf(t, l, "bob"); got != 100 {
		t.Errorf("Expected bob balance 100, got %d", got)
	}
}

func TestLedger_Send_ExactBalance(t *testing.T) {
	l := New()
	openTestAccount(t, l, "alice", 50)
	openTestAccount(t, l, "bob", 0)

	newBalance, err := l.InitiateTransfer("alice", "bob", 50, Send)
	if err != nil {
		t.Fatalf("Sending the entire balance must succeed: %v", err)
	}
	if newBalance != 0 {
		t.Errorf("Expected sender balance 0, got %d", newBalance)
	}
}

func TestLedger_Transfer_UnknownAccount(t *testing.T) {
	l := New()
	openTestAccount(t, l, "alice", 100)

	if _, err := l.InitiateTransfer("alice", "ghost", 10, Send); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("Expected ErrAccountNotFound for unknown receiver, got %v", err)
	}
	if _, err := l.InitiateTransfer("ghost", "alice", 10, Send); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("Expected ErrAccountNotFound for unknown sender, got %v", err)
	}
	if got := balanceOf(t, l, "alice"); got != 100 {
		t.Errorf("Expected alice balance unchanged at 100, got %d", got)
	}
}

func TestLedger_Transfer_NegativeAmount(t *testing.T) {
	l := New()
	openTestAccount(t, l, "alice", 100)
	openTestAccount(t, l, "bob", 100)

	if _, err := l.InitiateTransfer("alice", "bob", -5, Send); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("Expected ErrInvalidAmount, got %v", err)
	}
	if _, err := l.InitiateTransfer("alice", "bob", -5, RequestTransfer); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("Expected ErrInvalidAmount, got %v", err)
	}
}

func TestLedger_Request(t *testing.T) {
	l := New()
	openTestAccount(t, l, "alice", 100)
	openTestAccount(t, l, "bob", 100)

	// alice requests 20 from bob: the entry lands on bob, no money moves.
	newBalance, err := l.InitiateTransfer("alice", "bob", 20, RequestTransfer)
	if err != nil {
		t.Fatalf("InitiateTransfer failed: %v", err)
	}
	if newBalance != 100 {
		t.Errorf("Expected requester balance unchanged at 100, got %d", newBalance)
	}

	pending := pendingOf(t, l, "bob")
	if len(pending) != 1 {
		t.Fatalf("Expected 1 pending request, got %d", len(pending))
	}
	if pending[0] != (Request{Requester: "alice", Amount: 20}) {
		t.Errorf("Expected {alice 20}, got %+v", pending[0])
	}
	if got := balanceOf(t, l, "alice"); got != 100 {
		t.Errorf("Expected alice balance 100, got %d", got)
	}
	if got := balanceOf(t, l, "bob"); got != 100 {
		t.Errorf("Expected bob balance 100, got %d", got)
	}
}

func TestLedger_CompleteRequest_Accept(t *testing.T) {
	l := New()
	openTestAccount(t, l, "alice", 100)
	openTestAccount(t, l, "bob", 100)

	if _, err := l.InitiateTransfer("alice", "bob", 20, RequestTransfer); err != nil {
		t.Fatalf("InitiateTransfer failed: %v", err)
	}

	balance, pending, err := l.CompleteRequest("bob", Request{Requester: "alice", Amount: 20}, true)
	if err != nil {
		t.Fatalf("CompleteRequest failed: %v", err)
	}
	if balance != 80 {
		t.Errorf("Expected responder balance 80, got %d", balance)
	}
	if len(pending) != 0 {
		t.Errorf("Expected empty pending list, got %v", pending)
	}
	if got := balanceOf(t, l, "alice"); got != 120 {
		t.Errorf("Expected requester balance 120, got %d", got)
	}
}

func TestLedger_CompleteRequest_Deny(t *testing.T) {
	l := New()
	openTestAccount(t, l, "alice", 100)
	openTestAccount(t, l, "bob", 100)

	if _, err := l.InitiateTransfer("alice", "bob", 20, RequestTransfer); err != nil {
		t.Fatalf("InitiateTransfer failed: %v", err)
	}

	balance, pending, err := l.CompleteRequest("bob", Request{Requester: "alice", Amount: 20}, false)
	if err != nil {
		t.Fatalf("CompleteRequest failed: %v", err)
	}
	if balance != 100 {
		t.Errorf("Denial must not move money: expected 100, got %d", balance)
	}
	if len(pending) != 0 {
		t.Errorf("Expected the request to be consumed, got %v", pending)
	}
	if got := balanceOf(t, l, "alice"); got != 100 {
		t.Errorf("Expected requester balance 100, got %d", got)
	}
}

func TestLedger_CompleteRequest_NotFound(t *testing.T) {
	l := New()
	openTestAccount(t, l, "alice", 100)
	openTestAccount(t, l, "bob", 100)

	_, _, err := l.CompleteRequest("bob", Request{Requester: "alice", Amount: 20}, true)
	if !errors.Is(err, ErrRequestNotFound) {
		t.Fatalf("Expected ErrRequestNotFound, got %v", err)
	}
	if got := balanceOf(t, l, "alice"); got != 100 {
		t.Errorf("Expected alice balance 100, got %d", got)
	}
	if got := balanceOf(t, l, "bob"); got != 100 {
		t.Errorf("Expected bob balance 100, got %d", got)
	}
}

// A failed acceptance must leave the request in place: the funds check runs
// before the entry is consumed, so the whole operation is a no-op.
func TestLedger_CompleteRequest_InsufficientFundsKeepsRequest(t *testing.T) {
	l := New()
	openTestAccount(t, l, "alice", 100)
	openTestAccount(t, l, "bob", 10)

	if _, err := l.InitiateTransfer("alice", "bob", 50, RequestTransfer); err != nil {
		t.Fatalf("InitiateTransfer failed: %v", err)
	}

	_, _, err := l.CompleteRequest("bob", Request{Requester: "alice", Amount: 50}, true)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("Expected ErrInsufficientFunds, got %v", err)
	}

	pending := pendingOf(t, l, "bob")
	if len(pending) != 1 {
		t.Fatalf("Request must survive a failed acceptance, pending=%v", pending)
	}
	if got := balanceOf(t, l, "alice"); got != 100 {
		t.Errorf("Expected alice balance 100, got %d", got)
	}
	if got := balanceOf(t, l, "bob"); got != 10 {
		t.Errorf("Expected bob balance 10, got %d", got)
	}

	// The same request can still be denied afterwards.
	if _, _, err := l.CompleteRequest("bob", Request{Requester: "alice", Amount: 50}, false); err != nil {
		t.Fatalf("Denying the surviving request failed: %v", err)
	}
	if got := len(pendingOf(t, l, "bob")); got != 0 {
		t.Errorf("Expected empty pending list after denial, got %d entries", got)
	}
}

// Two identical requests are indistinguishable by value; resolving one must
// consume only the first occurrence and keep the order of the remainder.
func TestLedger_CompleteRequest_DuplicateConsumesFirst(t *testing.T) {
	l := New()
	openTestAccount(t, l, "alice", 100)
	openTestAccount(t, l, "carol", 100)
	openTestAccount(t, l, "bob", 100)

	l.InitiateTransfer("alice", "bob", 20, RequestTransfer)
	l.InitiateTransfer("carol", "bob", 5, RequestTransfer)
	l.InitiateTransfer("alice", "bob", 20, RequestTransfer)

	_, pending, err := l.CompleteRequest("bob", Request{Requester: "alice", Amount: 20}, false)
	if err != nil {
		t.Fatalf("CompleteRequest failed: %v", err)
	}

	want := []Request{
		{Requester: "carol", Amount: 5},
		{Requester: "alice", Amount: 20},
	}
	if len(pending) != len(want) {
		t.Fatalf("Expected %d pending requests, got %v", len(want), pending)
	}
	for i := range want {
		if pending[i] != want[i] {
			t.Errorf("pending[%d] = %+v, want %+v", i, pending[i], want[i])
		}
	}
}

func TestLedger_ListAccounts(t *testing.T) {
	l := New()
	openTestAccount(t, l, "alice", 50)
	openTestAccount(t, l, "bob", 200)
	openTestAccount(t, l, "carol", 50)
	openTestAccount(t, l, "dave", 120)

	data := l.ListAccounts()
	want := []string{"bob", "dave", "alice", "carol"}
	if len(data) != len(want) {
		t.Fatalf("Expected %d accounts, got %d", len(want), len(data))
	}
	for i, username := range want {
		if data[i].Username != username {
			t.Errorf("position %d: expected %q, got %q", i, username, data[i].Username)
		}
	}
	for i := 1; i < len(data); i++ {
		if data[i-1].Balance < data[i].Balance {
			t.Errorf("Listing not non-increasing at %d: %v", i, data)
		}
	}
}

// Equal balances must keep creation order regardless of how balances got
// there, so the tie order is pinned by the ledger, not by map iteration.
func TestLedger_ListAccounts_StableTies(t *testing.T) {
	l := New()
	for _, name := range []string{"u1", "u2", "u3", "u4", "u5"} {
		openTestAccount(t, l, name, 100)
	}

	for i := 0; i < 10; i++ {
		data := l.ListAccounts()
		for j, name := range []string{"u1", "u2", "u3", "u4", "u5"} {
			if data[j].Username != name {
				t.Fatalf("iteration %d position %d: expected %q, got %q", i, j, name, data[j].Username)
			}
		}
	}
}

// Snapshots must be defensive copies: mutating a returned pending list may
// not leak into ledger state.
func TestLedger_SnapshotIsolation(t *testing.T) {
	l := New()
	openTestAccount(t, l, "alice", 100)
	openTestAccount(t, l, "bob", 100)
	l.InitiateTransfer("alice", "bob", 20, RequestTransfer)

	data, err := l.Login("bob", "pw-bob")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	data.PendingRequests[0] = Request{Requester: "mallory", Amount: 999}

	pending := pendingOf(t, l, "bob")
	if pending[0] != (Request{Requester: "alice", Amount: 20}) {
		t.Errorf("Internal state mutated through snapshot: %+v", pending[0])
	}

	listed := l.ListAccounts()
	listed[0].PendingRequests = append(listed[0].PendingRequests, Request{Requester: "mallory", Amount: 1})
	if got := len(pendingOf(t, l, "bob")); got != 1 {
		t.Errorf("Expected 1 pending request after snapshot mutation, got %d", got)
	}
}

// Concurrent sends against one sender must serialize on the funds check:
// totals are conserved and no balance ever goes negative.
func TestLedger_ConcurrentSends(t *testing.T) {
	l := New()
	openTestAccount(t, l, "alice", 1000)
	openTestAccount(t, l, "bob", 0)
	openTestAccount(t, l, "carol", 0)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		receiver := "bob"
		if i%2 == 0 {
			receiver = "carol"
		}
		wg.Add(1)
		go func(recv string) {
			defer wg.Done()
			// Some of these overdraw and must fail cleanly.
			l.InitiateTransfer("alice", recv, 30, Send)
		}(receiver)
	}
	wg.Wait()

	a := balanceOf(t, l, "alice")
	b := balanceOf(t, l, "bob")
	c := balanceOf(t, l, "carol")
	if a < 0 || b < 0 || c < 0 {
		t.Fatalf("Negative balance observed: alice=%d bob=%d carol=%d", a, b, c)
	}
	if total := a + b + c; total != 1000 {
		t.Errorf("Total balance not conserved: got %d, want 1000", total)
	}
}

func TestTransferKind_Valid(t *testing.T) {
	if !Send.Valid() || !RequestTransfer.Valid() {
		t.Error("Expected send and request kinds to be valid")
	}
	if TransferKind("steal").Valid() {
		t.Error("Expected unknown kind to be invalid")
	}
}
