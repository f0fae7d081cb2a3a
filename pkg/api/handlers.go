package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"bank-ledger/pkg/ledger"
	"bank-ledger/pkg/metrics"

	"go.uber.org/zap"
)

// accessRequest is the body of POST /api/access. Pointer fields distinguish
// a missing key from a zero value.
type accessRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

// transferRequest is the body of POST /api/transactionStart.
type transferRequest struct {
	Username *string `json:"username"`
	Friend   *string `json:"friend"`
	Amount   *int64  `json:"amount"`
	Type     *string `json:"type"`
}

// completeRequestBody is the body of POST /api/completeRequest.
type completeRequestBody struct {
	Username *string `json:"username"`
	Friend   *string `json:"friend"`
	Amount   *int64  `json:"amount"`
	Accept   *bool   `json:"accept"`
}

// handleAccess logs a user in, creating the account with the configured
// starting balance when the username is unknown.
func (s *Server) handleAccess(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req accessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Username == nil {
		writeError(w, http.StatusBadRequest, `missing or invalid "username" in POST body`)
		return
	}
	if req.Password == nil {
		writeError(w, http.StatusBadRequest, `missing or invalid "password" in POST body`)
		return
	}
	username, password := *req.Username, *req.Password

	if s.knownUsername(username) {
		data, err := s.ledger.Login(username, password)
		if err != nil {
			if errors.Is(err, ledger.ErrAccountNotFound) {
				// Filter false positive: no such account after all.
				if s.filter != nil {
					s.filter.RecordFalsePositive()
				}
				s.openAccount(w, username, password, start)
				return
			}
			s.collector.RecordOperation(metrics.OpLogin, ledger.ClassifyError(err), time.Since(start))
			writeLedgerError(w, err)
			return
		}
		s.collector.RecordOperation(metrics.OpLogin, "none", time.Since(start))
		writeJSON(w, http.StatusOK, data)
		return
	}

	s.openAccount(w, username, password, start)
}

// openAccount creates the account and reports the outcome. A concurrent
// access for the same new username can beat us to creation; that race
// resolves as a login against the winner's credential.
func (s *Server) openAccount(w http.ResponseWriter, username, password string, start time.Time) {
	data, err := s.ledger.OpenAccount(username, password, s.config.StartingBalance)
	if errors.Is(err, ledger.ErrDuplicateAccount) {
		data, err = s.ledger.Login(username, password)
		if err != nil {
			s.collector.RecordOperation(metrics.OpLogin, ledger.ClassifyError(err), time.Since(start))
			writeLedgerError(w, err)
			return
		}
		s.collector.RecordOperation(metrics.OpLogin, "none", time.Since(start))
		writeJSON(w, http.StatusOK, data)
		return
	}
	if err != nil {
		s.collector.RecordOperation(metrics.OpOpenAccount, ledger.ClassifyError(err), time.Since(start))
		writeLedgerError(w, err)
		return
	}

	if s.filter != nil {
		s.filter.Add(username)
	}
	s.collector.RecordOperation(metrics.OpOpenAccount, "none", time.Since(start))
	s.collector.SetAccountCount(s.ledger.Size())
	s.logger.Info("account opened",
		zap.String("username", username),
		zap.Int64("starting_balance", s.config.StartingBalance))
	writeJSON(w, http.StatusOK, data)
}

// knownUsername consults the bloom filter before the ledger. A negative
// answer is definitive and skips the ledger lock entirely.
func (s *Server) knownUsername(username string) bool {
	if s.filter != nil && !s.filter.MayExist(username) {
		s.collector.RecordFilterLookup(true)
		return false
	}
	s.collector.RecordFilterLookup(false)
	return s.ledger.HasAccount(username)
}

// handleTransactionStart initiates a send or a money request between two
// distinct, existing accounts.
func (s *Server) handleTransactionStart(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Username == nil {
		writeError(w, http.StatusBadRequest, `missing or invalid "username" in POST body`)
		return
	}
	if req.Friend == nil {
		writeError(w, http.StatusBadRequest, `missing or invalid "friend" in POST body`)
		return
	}
	if req.Amount == nil {
		writeError(w, http.StatusBadRequest, `missing or invalid "amount" in POST body`)
		return
	}
	if req.Type == nil || !ledger.TransferKind(*req.Type).Valid() {
		writeError(w, http.StatusBadRequest, `missing or invalid "type" in POST body`)
		return
	}

	username, friend := *req.Username, *req.Friend
	if !s.ledger.HasAccount(username) || !s.ledger.HasAccount(friend) {
		writeError(w, http.StatusBadRequest, "both users must have accounts")
		return
	}
	// Self-transfers are rejected here; the ledger does not re-check.
	if username == friend {
		writeError(w, http.StatusBadRequest, "attempted to initialize transfer to self")
		return
	}

	kind := ledger.TransferKind(*req.Type)
	op := metrics.OpSend
	if kind == ledger.RequestTransfer {
		op = metrics.OpRequest
	}

	newBalance, err := s.ledger.InitiateTransfer(username, friend, *req.Amount, kind)
	if err != nil {
		s.collector.RecordOperation(op, ledger.ClassifyError(err), time.Since(start))
		writeLedgerError(w, err)
		return
	}

	s.collector.RecordOperation(op, "none", time.Since(start))
	s.collector.RecordTransferVolume(string(kind), *req.Amount)
	s.logger.Info("transfer initiated",
		zap.String("sender", username),
		zap.String("receiver", friend),
		zap.Int64("amount", *req.Amount),
		zap.String("kind", string(kind)))
	writeJSON(w, http.StatusOK, map[string]any{
		"initialized": true,
		"newBalance":  newBalance,
	})
}

// handleCompleteRequest accepts or denies a pending money request.
func (s *Server) handleCompleteRequest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req completeRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Username == nil {
		writeError(w, http.StatusBadRequest, `missing or invalid "username" in POST body`)
		return
	}
	if req.Friend == nil {
		writeError(w, http.StatusBadRequest, `missing or invalid "friend" in POST body`)
		return
	}
	if req.Amount == nil {
		writeError(w, http.StatusBadRequest, `missing or invalid "amount" in POST body`)
		return
	}
	if req.Accept == nil {
		writeError(w, http.StatusBadRequest, `missing or invalid "accept" in POST body`)
		return
	}

	username, friend := *req.Username, *req.Friend
	if !s.ledger.HasAccount(username) || !s.ledger.HasAccount(friend) {
		writeError(w, http.StatusBadRequest, "both users must have accounts")
		return
	}
	if username == friend {
		writeError(w, http.StatusBadRequest, "attempted to complete transfer to self")
		return
	}

	pending := ledger.Request{Requester: friend, Amount: *req.Amount}
	newBalance, pendingRequests, err := s.ledger.CompleteRequest(username, pending, *req.Accept)
	if err != nil {
		s.collector.RecordOperation(metrics.OpCompleteRequest, ledger.ClassifyError(err), time.Since(start))
		writeLedgerError(w, err)
		return
	}

	s.collector.RecordOperation(metrics.OpCompleteRequest, "none", time.Since(start))
	if *req.Accept {
		s.collector.RecordTransferVolume("accept", *req.Amount)
	}
	s.logger.Info("request completed",
		zap.String("responder", username),
		zap.String("requester", friend),
		zap.Int64("amount", *req.Amount),
		zap.Bool("accepted", *req.Accept))
	writeJSON(w, http.StatusOK, map[string]any{
		"completed":       true,
		"newBalance":      newBalance,
		"pendingRequests": pendingRequests,
	})
}

// handleData returns every account sorted by descending balance. Guarded by
// the admin key when one is configured. Credentials are never included.
func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if s.config.AdminKey != "" && r.Header.Get("X-Access-Key") != s.config.AdminKey {
		writeError(w, http.StatusForbidden, "invalid access key")
		return
	}

	data := s.ledger.ListAccounts()
	s.collector.RecordOperation(metrics.OpListAccounts, "none", time.Since(start))
	writeJSON(w, http.StatusOK, map[string]any{"data": data})
}

// handleHealth returns a simple health check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	})
}

// writeLedgerError maps a ledger error to an HTTP response.
func writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ledger.ErrCredentialMismatch):
		writeError(w, http.StatusUnauthorized, "password was wrong")
	case errors.Is(err, ledger.ErrRequestNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ledger.ErrInsufficientFunds), errors.Is(err, ledger.ErrDuplicateAccount):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, ledger.ErrSameAccount):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
