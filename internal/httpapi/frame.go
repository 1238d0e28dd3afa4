package httpapi

import "bankist.app/internal/bank"

// Frame records the renderer calls one event produced, in call order.
type Frame struct {
	Calls     []string           `json:"calls"`
	Welcome   string             `json:"welcome,omitempty"`
	Visible   *bool              `json:"visible,omitempty"`
	Movements []bank.MovementRow `json:"movements,omitempty"`
	Sorted    *bool              `json:"sorted,omitempty"`
	Balance   string             `json:"balance,omitempty"`
	Summary   *FrameSummary      `json:"summary,omitempty"`
}

type FrameSummary struct {
	In       string `json:"in"`
	Out      string `json:"out"`
	Interest string `json:"interest"`
}

var _ bank.Renderer = (*Frame)(nil)

func newFrame() *Frame { return &Frame{Calls: []string{}} }

func (f *Frame) RenderMovements(rows []bank.MovementRow, sorted bool) {
	f.Calls = append(f.Calls, "movements")
	f.Movements = rows
	f.Sorted = &sorted
}

func (f *Frame) RenderBalance(balance string) {
	f.Calls = append(f.Calls, "balance")
	f.Balance = balance
}

func (f *Frame) RenderSummary(in, out, interest string) {
	f.Calls = append(f.Calls, "summary")
	f.Summary = &FrameSummary{In: in, Out: out, Interest: interest}
}

func (f *Frame) RenderWelcome(firstName string) {
	f.Calls = append(f.Calls, "welcome")
	f.Welcome = "Welcome back, " + firstName
}

func (f *Frame) SetAuthenticatedVisible(visible bool) {
	f.Calls = append(f.Calls, "visible")
	f.Visible = &visible
}
