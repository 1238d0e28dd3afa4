package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"bankist.app/internal/audit"
	"bankist.app/internal/auth"
	"bankist.app/internal/bank"
	"bankist.app/internal/obs"
	"bankist.app/internal/stream"
)

type loginRequest struct {
	Username string `json:"username"`
	PIN      string `json:"pin"`
}

type transferRequest struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type loanRequest struct {
	Amount string `json:"amount"`
}

type closeRequest struct {
	Username string `json:"username"`
	PIN      string `json:"pin"`
}

type frameResponse struct {
	Token     string     `json:"token,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Frame     *Frame     `json:"frame"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	entry := a.optionalSession(r)
	fresh := entry == nil
	if fresh {
		entry = &sessionEntry{sess: bank.NewSession()}
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	ctx := auth.ContextWithSession(r.Context(), entry.sess.ID)
	frame := newFrame()
	v, err := bank.NewHandlers(a.svc, entry.sess, frame).OnLogin(ctx, req.Username, req.PIN)
	if err != nil {
		a.fail(w, r.WithContext(ctx), "login", err)
		return
	}

	token, expires, err := a.issuer.GenerateToken(entry.sess.ID, a.sessionTTL)
	if err != nil {
		a.log.Error("issue session token", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	a.sessions.put(entry, expires)

	obs.ObserveOperation("login", outcomeOK)
	a.audit(r.WithContext(ctx), "bank.login", map[string]any{
		"username": v.Account.Username,
		"fresh":    fresh,
	})
	writeJSON(w, http.StatusOK, frameResponse{Token: token, ExpiresAt: &expires, Frame: frame})
}

func (a *API) handleView(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	a.withSession(w, r, "view", func(h *bank.Handlers) error {
		_, err := h.OnRefresh(r.Context())
		return err
	})
}

func (a *API) handleTransfers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req transferRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	a.withSession(w, r, "transfer", func(h *bank.Handlers) error {
		from := h.Session().Username()
		v, err := h.OnTransfer(r.Context(), req.To, req.Amount)
		if err != nil {
			return err
		}
		amount, _ := bank.ParseAmount(req.Amount)
		a.publish(stream.MovementEvent{
			Kind:     stream.KindTransfer,
			From:     from,
			To:       req.To,
			Amount:   amount.String(),
			Currency: v.Account.Currency,
		})
		a.audit(r, "bank.transfer", map[string]any{"from": from, "to": req.To, "amount": amount.String()})
		return nil
	})
}

func (a *API) handleLoans(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	a.withSession(w, r, "loan", func(h *bank.Handlers) error {
		v, err := h.OnLoan(r.Context(), req.Amount)
		if err != nil {
			return err
		}
		granted := v.Account.Movements[len(v.Account.Movements)-1].Amount.String()
		a.publish(stream.MovementEvent{
			Kind:     stream.KindLoan,
			To:       v.Account.Username,
			Amount:   granted,
			Currency: v.Account.Currency,
		})
		a.audit(r, "bank.loan", map[string]any{"username": v.Account.Username, "amount": granted})
		return nil
	})
}

func (a *API) handleClose(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req closeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	a.withSession(w, r, "close", func(h *bank.Handlers) error {
		acc, err := h.OnClose(r.Context(), req.Username, req.PIN)
		if err != nil {
			return err
		}
		a.sessions.remove(h.Session().ID)
		a.publish(stream.MovementEvent{Kind: stream.KindClose, From: acc.Username})
		a.audit(r, "bank.close", map[string]any{"username": acc.Username})
		return nil
	})
}

func (a *API) handleSort(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	a.withSession(w, r, "sort", func(h *bank.Handlers) error {
		v, err := h.OnSort(r.Context())
		if err != nil {
			return err
		}
		a.audit(r, "bank.sort", map[string]any{"sorted": v.Sorted})
		return nil
	})
}

// withSession runs op on the caller's session and answers with the frame it
// rendered.
func (a *API) withSession(w http.ResponseWriter, r *http.Request, op string, run func(h *bank.Handlers) error) {
	entry, err := a.sessionFor(r)
	if err != nil {
		obs.ObserveOperation(op, outcomeNoSession)
		unauthorized(w, r, err.Error())
		return
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	frame := newFrame()
	if err := run(bank.NewHandlers(a.svc, entry.sess, frame)); err != nil {
		a.fail(w, r, op, err)
		return
	}
	obs.ObserveOperation(op, outcomeOK)
	writeJSON(w, http.StatusOK, frameResponse{Frame: frame})
}

// fail answers a rejected operation. Domain rejections stay silent (200 and
// an empty frame) unless error reporting is enabled; store failures are 500.
func (a *API) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	outcome := outcomeOf(err)
	obs.ObserveOperation(op, outcome)
	if outcome == outcomeError {
		a.log.Error("operation failed",
			zap.String("operation", op),
			zap.String("request_id", RequestIDFromContext(r.Context())),
			zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	a.log.Debug("operation rejected",
		zap.String("operation", op),
		zap.String("outcome", outcome),
		zap.String("request_id", RequestIDFromContext(r.Context())))
	if !a.reportErrors {
		writeJSON(w, http.StatusOK, frameResponse{Frame: newFrame()})
		return
	}
	writeError(w, r, statusFor(err), err.Error())
}

func (a *API) publish(evt stream.MovementEvent) {
	if a.stream == nil {
		return
	}
	evt.Timestamp = a.svc.Now().UTC()
	a.stream.Publish(evt)
}

func (a *API) audit(r *http.Request, event string, fields map[string]any) {
	if err := audit.LogEvent(r.Context(), event, fields); err != nil {
		a.log.Warn("audit log failed", zap.String("event", event), zap.Error(err))
	}
}

const (
	outcomeOK                 = "ok"
	outcomeInvalidCredentials = "invalid_credentials"
	outcomeInvalidAmount      = "invalid_amount"
	outcomeNotFound           = "not_found"
	outcomeInsufficientFunds  = "insufficient_funds"
	outcomeSelfTransfer       = "self_transfer"
	outcomeLoanDeclined       = "loan_declined"
	outcomeNoSession          = "no_session"
	outcomeError              = "error"
)

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, bank.ErrInvalidCredentials):
		return outcomeInvalidCredentials
	case errors.Is(err, bank.ErrInvalidAmount):
		return outcomeInvalidAmount
	case errors.Is(err, bank.ErrNotFound):
		return outcomeNotFound
	case errors.Is(err, bank.ErrInsufficientFunds):
		return outcomeInsufficientFunds
	case errors.Is(err, bank.ErrSelfTransfer):
		return outcomeSelfTransfer
	case errors.Is(err, bank.ErrLoanDeclined):
		return outcomeLoanDeclined
	case errors.Is(err, bank.ErrNoSession):
		return outcomeNoSession
	default:
		return outcomeError
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, bank.ErrInvalidCredentials), errors.Is(err, bank.ErrNoSession):
		return http.StatusUnauthorized
	case errors.Is(err, bank.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, bank.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, bank.ErrInsufficientFunds):
		return http.StatusConflict
	case errors.Is(err, bank.ErrSelfTransfer), errors.Is(err, bank.ErrLoanDeclined):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}
