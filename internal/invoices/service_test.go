package invoices

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/console/internal/calc"
	"github.com/odyssey-erp/console/internal/clients"
	"github.com/odyssey-erp/console/internal/events"
	"github.com/odyssey-erp/console/internal/history"
	"github.com/odyssey-erp/console/internal/lifecycle"
	"github.com/odyssey-erp/console/internal/money"
	"github.com/odyssey-erp/console/internal/query"
	"github.com/odyssey-erp/console/internal/shared"
)

type fixture struct {
	svc      *Service
	log      *history.Memory
	clientID int64
	clock    time.Time
	events   []events.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clientSvc := clients.NewService(clients.NewMemoryRepository(), nil)
	acme, err := clientSvc.Create(context.Background(), clients.CreateInput{Name: "Acme"}, 0)
	require.NoError(t, err)
	f := &fixture{log: history.NewMemory(), clientID: acme.ID, clock: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)}
	publisher := events.PublisherFunc(func(_ context.Context, evt events.Event) error {
		f.events = append(f.events, evt)
		return nil
	})
	f.svc = NewService(NewMemoryRepository(f.log, clientSvc), f.log, clientSvc, nil, publisher, calc.DefaultTaxRate, nil)
	f.svc.now = func() time.Time { return f.clock }
	return f
}

func (f *fixture) create(t *testing.T, lines ...LineInput) Invoice {
	t.Helper()
	inv, err := f.svc.Create(context.Background(), CreateInput{
		ClientID:  f.clientID,
		IssueDate: shared.NewDate(2024, 3, 1),
		DueDate:   shared.NewDate(2024, 3, 31),
		Lines:     lines,
	}, 1)
	require.NoError(t, err)
	return inv
}

func line(desc string, qty int64, price string) LineInput {
	return LineInput{Description: desc, Quantity: qty, UnitPrice: money.MustParse(price)}
}

func TestCreateComputesTotalsAndNumber(t *testing.T) {
	f := newFixture(t)
	inv := f.create(t, line("Design", 2, "100"), line("Hosting", 1, "50"))

	assert.Equal(t, "INV-202403-0001", inv.Number)
	assert.Equal(t, StatusDraft, inv.Status)
	assert.Equal(t, "Acme", inv.ClientName)
	assert.Equal(t, "250.00", inv.Subtotal.String())
	assert.Equal(t, "25.00", inv.Tax.String())
	assert.Equal(t, "275.00", inv.Total.String())
	assert.Equal(t, "200.00", inv.Lines[0].Amount.String())

	second := f.create(t)
	assert.Equal(t, "INV-202403-0002", second.Number)
	assert.True(t, second.Total.IsZero())
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, CreateInput{
		ClientID:  f.clientID,
		IssueDate: shared.NewDate(2024, 3, 1),
		DueDate:   shared.NewDate(2024, 2, 1),
	}, 0)
	var vErr *shared.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "due_date", vErr.Field)

	_, err = f.svc.Create(ctx, CreateInput{
		ClientID:  f.clientID,
		IssueDate: shared.NewDate(2024, 3, 1),
		DueDate:   shared.NewDate(2024, 3, 2),
		Lines:     []LineInput{line("ok", 1, "1"), line("bad", -1, "10")},
	}, 0)
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "line_items[1].quantity", vErr.Field)

	_, err = f.svc.Create(ctx, CreateInput{
		ClientID:  f.clientID + 5,
		IssueDate: shared.NewDate(2024, 3, 1),
		DueDate:   shared.NewDate(2024, 3, 2),
	}, 0)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestLineEditsRecomputeWhileDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.create(t, line("Design", 2, "100"))

	inv, err := f.svc.AddLine(ctx, inv.ID, line("Hosting", 1, "50"), 1)
	require.NoError(t, err)
	assert.Equal(t, "275.00", inv.Total.String())
	require.Len(t, inv.Lines, 2)

	inv, err = f.svc.UpdateLine(ctx, inv.ID, inv.Lines[0].ID, line("Design", 3, "100"), 1)
	require.NoError(t, err)
	assert.Equal(t, "300.00", inv.Lines[0].Amount.String())
	assert.Equal(t, "350.00", inv.Subtotal.String())
	assert.True(t, inv.Total.Equal(inv.Subtotal.Add(inv.Tax)))

	_, err = f.svc.UpdateLine(ctx, inv.ID, inv.Lines[0].ID, line("Design", 1, "-5"), 1)
	assert.ErrorIs(t, err, shared.ErrValidation)

	inv, err = f.svc.RemoveLine(ctx, inv.ID, inv.Lines[1].ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "330.00", inv.Total.String())

	_, err = f.svc.RemoveLine(ctx, inv.ID, 999, 1)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSentInvoiceIsImmutable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.create(t, line("Design", 2, "100"))

	inv, err := f.svc.Transition(ctx, inv.ID, ActionSend, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusSent, inv.Status)
	require.NotNil(t, inv.SentAt)

	_, err = f.svc.AddLine(ctx, inv.ID, line("Extra", 1, "1"), 1)
	var immErr *shared.ImmutableInvoiceError
	require.ErrorAs(t, err, &immErr)
	assert.Equal(t, "sent", immErr.Status)

	_, err = f.svc.UpdateLine(ctx, inv.ID, inv.Lines[0].ID, line("Design", 1, "1"), 1)
	assert.ErrorIs(t, err, shared.ErrImmutableInvoice)
	_, err = f.svc.RemoveLine(ctx, inv.ID, inv.Lines[0].ID, 1)
	assert.ErrorIs(t, err, shared.ErrImmutableInvoice)
}

func TestSendRequiresLines(t *testing.T) {
	f := newFixture(t)
	inv := f.create(t)
	_, err := f.svc.Transition(context.Background(), inv.ID, ActionSend, 1)
	var vErr *shared.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "line_items", vErr.Field)
}

func TestOverdueEvaluationIsLazyAndIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.create(t, line("Design", 1, "100"))
	inv, err := f.svc.Transition(ctx, inv.ID, ActionSend, 1)
	require.NoError(t, err)

	// due date is still today
	f.clock = time.Date(2024, 3, 31, 23, 0, 0, 0, time.UTC)
	inv, err = f.svc.Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSent, inv.Status)

	f.clock = time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)
	inv, err = f.svc.Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusOverdue, inv.Status)

	inv, err = f.svc.Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusOverdue, inv.Status)

	records, err := f.svc.History(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, string(ActionMarkOverdue), records[1].Action)
	assert.Equal(t, lifecycle.SystemActor, records[1].ActorID)

	inv, err = f.svc.Transition(ctx, inv.ID, ActionPay, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, inv.Status)
	require.NotNil(t, inv.PaidAt)

	_, err = f.svc.Transition(ctx, inv.ID, ActionCancel, 1)
	assert.ErrorIs(t, err, lifecycle.ErrInvalidTransition)
}

func TestEvaluateOverdueDirect(t *testing.T) {
	inv := Invoice{ID: 1, Status: StatusSent, DueDate: shared.NewDate(2024, 1, 31)}
	now := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	rec, changed := inv.EvaluateOverdue(now)
	require.True(t, changed)
	assert.Equal(t, "sent", rec.From)
	assert.Equal(t, "overdue", rec.To)

	_, changed = inv.EvaluateOverdue(now)
	assert.False(t, changed)
	assert.Equal(t, StatusOverdue, inv.Status)

	draft := Invoice{ID: 2, Status: StatusDraft, DueDate: shared.NewDate(2020, 1, 1)}
	_, changed = draft.EvaluateOverdue(now)
	assert.False(t, changed)
}

func TestListRefreshesOverdueBeforeFiltering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.create(t, line("Design", 1, "100"))
	_, err := f.svc.Transition(ctx, inv.ID, ActionSend, 1)
	require.NoError(t, err)
	f.create(t)

	f.clock = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	page, err := f.svc.List(ctx, query.Params{Status: string(StatusOverdue)})
	require.NoError(t, err)
	require.Equal(t, 1, page.Count)
	assert.Equal(t, inv.ID, page.Results[0].ID)

	page, err = f.svc.List(ctx, query.Params{Search: "inv-202403-0002"})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Count)
}

func TestManualOverdueIsRejected(t *testing.T) {
	f := newFixture(t)
	inv := f.create(t, line("Design", 1, "100"))
	_, err := f.svc.Transition(context.Background(), inv.ID, ActionMarkOverdue, 1)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestCancelFromDraftPublishesEvent(t *testing.T) {
	f := newFixture(t)
	inv := f.create(t)
	inv, err := f.svc.Transition(context.Background(), inv.ID, ActionCancel, 4)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, inv.Status)
	require.NotNil(t, inv.CancelledAt)

	last := f.events[len(f.events)-1]
	assert.Equal(t, "invoice.cancel", last.Type)
	assert.Equal(t, int64(4), last.ActorID)
}
