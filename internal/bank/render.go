package bank

import (
	"context"
	"sort"
	"time"
)

// Renderer is the presentation surface. Values arrive already formatted for
// the account's locale and currency.
type Renderer interface {
	RenderMovements(rows []MovementRow, sorted bool)
	RenderBalance(balance string)
	RenderSummary(in, out, interest string)
	RenderWelcome(firstName string)
	SetAuthenticatedVisible(visible bool)
}

// MovementRow is one rendered line of the movements list.
type MovementRow struct {
	Index   int    `json:"index"` // 1-based, in rendered order
	ID      string `json:"id"`
	Kind    string `json:"kind"`
	Amount  string `json:"amount"`
	Display string `json:"display"`
	Date    string `json:"date"`
}

// OrderMovements returns the movements in chronological order, or ascending by
// amount when sorted is set. The input is not modified.
func OrderMovements(movements []Movement, sorted bool) []Movement {
	out := make([]Movement, len(movements))
	copy(out, movements)
	if sorted {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Amount.LessThan(out[j].Amount)
		})
	}
	return out
}

// MovementRows formats an account's movements for display.
func MovementRows(acc Account, sorted bool, now time.Time) []MovementRow {
	ordered := OrderMovements(acc.Movements, sorted)
	rows := make([]MovementRow, 0, len(ordered))
	for i, m := range ordered {
		rows = append(rows, MovementRow{
			Index:   i + 1,
			ID:      m.ID,
			Kind:    m.Kind(),
			Amount:  m.Amount.StringFixed(2),
			Display: FormatMoney(m.Amount, acc.Locale, acc.Currency),
			Date:    FormatMovementDate(m.Date, now, acc.Locale),
		})
	}
	return rows
}

// UpdateUI performs a full refresh: movements, balance and summary.
func UpdateUI(r Renderer, v View, now time.Time) {
	acc := v.Account
	r.RenderMovements(MovementRows(acc, v.Sorted, now), v.Sorted)
	r.RenderBalance(FormatMoney(v.Balance, acc.Locale, acc.Currency))
	r.RenderSummary(
		FormatMoney(v.Summary.In, acc.Locale, acc.Currency),
		FormatMoney(v.Summary.Out, acc.Locale, acc.Currency),
		FormatMoney(v.Summary.Interest, acc.Locale, acc.Currency),
	)
}

// Handlers binds a Service, one Session and a Renderer into the event
// handlers of the page. A failed event renders nothing; the error is returned
// so the caller can decide whether to surface it.
type Handlers struct {
	svc  *Service
	sess *Session
	out  Renderer
}

// NewHandlers returns the event handlers for sess.
func NewHandlers(svc *Service, sess *Session, out Renderer) *Handlers {
	return &Handlers{svc: svc, sess: sess, out: out}
}

// Session returns the session the handlers act on.
func (h *Handlers) Session() *Session { return h.sess }

func (h *Handlers) OnLogin(ctx context.Context, username, pin string) (View, error) {
	v, err := h.svc.Login(ctx, h.sess, username, pin)
	if err != nil {
		return View{}, err
	}
	h.out.RenderWelcome(v.Account.FirstName())
	h.out.SetAuthenticatedVisible(true)
	UpdateUI(h.out, v, h.svc.Now())
	return v, nil
}

func (h *Handlers) OnRefresh(ctx context.Context) (View, error) {
	v, err := h.svc.View(ctx, h.sess)
	if err != nil {
		return View{}, err
	}
	UpdateUI(h.out, v, h.svc.Now())
	return v, nil
}

func (h *Handlers) OnTransfer(ctx context.Context, to, amount string) (View, error) {
	v, err := h.svc.Transfer(ctx, h.sess, to, amount)
	if err != nil {
		return View{}, err
	}
	UpdateUI(h.out, v, h.svc.Now())
	return v, nil
}

func (h *Handlers) OnLoan(ctx context.Context, amount string) (View, error) {
	v, err := h.svc.RequestLoan(ctx, h.sess, amount)
	if err != nil {
		return View{}, err
	}
	UpdateUI(h.out, v, h.svc.Now())
	return v, nil
}

func (h *Handlers) OnClose(ctx context.Context, username, pin string) (Account, error) {
	acc, err := h.svc.CloseAccount(ctx, h.sess, username, pin)
	if err != nil {
		return Account{}, err
	}
	h.out.SetAuthenticatedVisible(false)
	return acc, nil
}

func (h *Handlers) OnSort(ctx context.Context) (View, error) {
	v, err := h.svc.ToggleSort(ctx, h.sess)
	if err != nil {
		return View{}, err
	}
	h.out.RenderMovements(MovementRows(v.Account, v.Sorted, h.svc.Now()), v.Sorted)
	return v, nil
}
