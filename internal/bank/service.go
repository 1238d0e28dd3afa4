package bank

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"bankist.app/internal/ids"
)

var loanRatio = decimal.New(1, -1) // 10%

// View is what a refresh shows for the current account.
type View struct {
	Account Account         `json:"account"`
	Balance decimal.Decimal `json:"balance"`
	Summary Summary         `json:"summary"`
	Sorted  bool            `json:"sorted"`
}

// Service runs the account operations. Operations are serialised by a single
// mutex so each one runs to completion before the next starts.
type Service struct {
	mu    sync.Mutex
	store Repository
	now   func() time.Time
	log   *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used to stamp movements.
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithLogger sets the logger used for debug traces of rejected operations.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// NewService wires a Service to its account store.
func NewService(store Repository, opts ...Option) *Service {
	s := &Service{
		store: store,
		now:   time.Now,
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time { return s.now() }

// Store exposes the underlying repository.
func (s *Service) Store() Repository { return s.store }

// Login authenticates sess as username. A missing account, an unparsable pin
// or a wrong pin all yield ErrInvalidCredentials and leave sess as it was.
func (s *Service) Login(ctx context.Context, sess *Session, username, rawPIN string) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.store.Find(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return View{}, ErrInvalidCredentials
	}
	if err != nil {
		return View{}, err
	}
	pin, err := ParsePIN(rawPIN)
	if err != nil {
		return View{}, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
	if pin != acc.PIN {
		return View{}, ErrInvalidCredentials
	}

	sess.login(acc.Username)
	return s.refresh(sess, acc), nil
}

// View refreshes and returns the current account.
func (s *Service) View(ctx context.Context, sess *Session) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.current(ctx, sess)
	if err != nil {
		return View{}, err
	}
	return s.refresh(sess, acc), nil
}

// Transfer moves amount from the current account to toUsername. The balance
// check uses the balance from the last refresh.
func (s *Service) Transfer(ctx context.Context, sess *Session, toUsername, rawAmount string) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sender, err := s.current(ctx, sess)
	if err != nil {
		return View{}, err
	}
	amount, err := ParseAmount(rawAmount)
	if err != nil {
		return View{}, err
	}
	if !amount.IsPositive() {
		return View{}, ErrInvalidAmount
	}
	receiver, err := s.store.Find(ctx, toUsername)
	if err != nil {
		return View{}, err
	}
	if !sess.balanceKnown || sess.balance.LessThan(amount) {
		return View{}, ErrInsufficientFunds
	}
	if receiver.Username == sender.Username {
		return View{}, ErrSelfTransfer
	}

	at := s.now().UTC()
	err = s.store.Post(ctx,
		Entry{Username: sender.Username, Movement: Movement{ID: ids.NewAt(at), Amount: amount.Neg(), Date: at}},
		Entry{Username: receiver.Username, Movement: Movement{ID: ids.NewAt(at), Amount: amount, Date: at}},
	)
	if err != nil {
		return View{}, fmt.Errorf("post transfer: %w", err)
	}
	return s.reload(ctx, sess)
}

// RequestLoan grants a whole-number loan when the account has at least one
// movement of 10% of the requested amount or more.
func (s *Service) RequestLoan(ctx context.Context, sess *Session, rawAmount string) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.current(ctx, sess)
	if err != nil {
		return View{}, err
	}
	amount, err := ParseLoanAmount(rawAmount)
	if err != nil {
		return View{}, err
	}
	if !amount.IsPositive() {
		return View{}, ErrInvalidAmount
	}
	threshold := amount.Mul(loanRatio)
	qualifies := false
	for _, m := range acc.Movements {
		if m.Amount.GreaterThanOrEqual(threshold) {
			qualifies = true
			break
		}
	}
	if !qualifies {
		s.log.Debug("loan declined",
			zap.String("username", acc.Username), zap.String("amount", amount.String()))
		return View{}, ErrLoanDeclined
	}

	at := s.now().UTC()
	err = s.store.Post(ctx, Entry{
		Username: acc.Username,
		Movement: Movement{ID: ids.NewAt(at), Amount: amount, Date: at},
	})
	if err != nil {
		return View{}, fmt.Errorf("post loan: %w", err)
	}
	return s.reload(ctx, sess)
}

// CloseAccount removes the current account after re-checking its username and
// pin, then logs the session out. It returns the removed account.
func (s *Service) CloseAccount(ctx context.Context, sess *Session, username, rawPIN string) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.current(ctx, sess)
	if err != nil {
		return Account{}, err
	}
	if username != acc.Username {
		return Account{}, ErrInvalidCredentials
	}
	pin, err := ParsePIN(rawPIN)
	if err != nil {
		return Account{}, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
	if pin != acc.PIN {
		return Account{}, ErrInvalidCredentials
	}
	if err := s.store.RemoveByKey(ctx, acc.Username); err != nil {
		return Account{}, fmt.Errorf("remove account: %w", err)
	}
	sess.clear()
	return acc, nil
}

// ToggleSort flips the movement ordering of the session.
func (s *Service) ToggleSort(ctx context.Context, sess *Session) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, err := s.current(ctx, sess)
	if err != nil {
		return View{}, err
	}
	sess.sorted = !sess.sorted
	return View{
		Account: acc,
		Balance: Balance(acc.Movements),
		Summary: Summarize(acc.Movements, acc.InterestRate),
		Sorted:  sess.sorted,
	}, nil
}

// current resolves the session's account, logging the session out when the
// account no longer exists.
func (s *Service) current(ctx context.Context, sess *Session) (Account, error) {
	if sess == nil || !sess.Active() {
		return Account{}, ErrNoSession
	}
	acc, err := s.store.Find(ctx, sess.username)
	if errors.Is(err, ErrNotFound) {
		sess.clear()
		return Account{}, ErrNoSession
	}
	if err != nil {
		return Account{}, err
	}
	return acc, nil
}

func (s *Service) reload(ctx context.Context, sess *Session) (View, error) {
	acc, err := s.current(ctx, sess)
	if err != nil {
		return View{}, err
	}
	return s.refresh(sess, acc), nil
}

func (s *Service) refresh(sess *Session, acc Account) View {
	balance := Balance(acc.Movements)
	sess.cacheBalance(balance)
	return View{
		Account: acc,
		Balance: balance,
		Summary: Summarize(acc.Movements, acc.InterestRate),
		Sorted:  sess.sorted,
	}
}
