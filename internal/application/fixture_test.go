package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/estatehub/service-scheduling/internal/dispatch"
	bookingDomain "github.com/estatehub/service-scheduling/internal/domain/booking"
	providerDomain "github.com/estatehub/service-scheduling/internal/domain/provider"
	"github.com/estatehub/service-scheduling/internal/platform/auth"
	"github.com/estatehub/service-scheduling/internal/platform/kafka"
	"github.com/estatehub/service-scheduling/internal/repository/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeProducer struct {
	mu     sync.Mutex
	events []kafka.CloudEvent
}

func (p *fakeProducer) PublishEvent(_ context.Context, _ string, ce kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ce)
	return nil
}

func (p *fakeProducer) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type fakeQueue struct {
	mu    sync.Mutex
	tasks []dispatch.Task
}

func (q *fakeQueue) Enqueue(_ context.Context, t dispatch.Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, t)
	return nil
}

func (q *fakeQueue) ofType(taskType string) []dispatch.Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []dispatch.Task
	for _, t := range q.tasks {
		if t.Type == taskType {
			out = append(out, t)
		}
	}
	return out
}

type fakeGateway struct {
	requests []DepositRequest
	err      error
}

func (g *fakeGateway) CreateDepositIntent(_ context.Context, req DepositRequest) (*PaymentIntention, error) {
	g.requests = append(g.requests, req)
	if g.err != nil {
		return nil, g.err
	}
	return &PaymentIntention{
		Gateway:      "test",
		Reference:    "pi_" + req.BookingNumber,
		ClientSecret: "secret",
		AmountCents:  req.AmountCents,
		Currency:     req.Currency,
	}, nil
}

// Friday 2026-10-16 08:00 UTC.
var fixedNow = time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)

type fixture struct {
	providers    *memory.ProviderRepository
	windows      *memory.WindowRepository
	bookings     *memory.BookingRepository
	deliverables *memory.DeliverableRepository
	producer     *fakeProducer
	queue        *fakeQueue
	gateway      *fakeGateway

	availability *AvailabilityService
	checker      *ConflictChecker
	resolver     *AssignmentResolver
	lifecycle    *StatusLifecycleManager
	bookingSvc   *BookingService
	providerSvc  *ProviderService
	delivSvc     *DeliverableService

	admin auth.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := zap.NewNop()
	clock := func() time.Time { return fixedNow }

	f := &fixture{
		providers:    memory.NewProviderRepository(),
		windows:      memory.NewWindowRepository(),
		bookings:     memory.NewBookingRepository(),
		deliverables: memory.NewDeliverableRepository(),
		producer:     &fakeProducer{},
		queue:        &fakeQueue{},
		gateway:      &fakeGateway{},
		admin:        auth.Context{UserID: uuid.New(), Role: auth.RoleAdmin},
	}
	publisher := NewEventPublisher(f.producer, "booking.events", log)
	f.availability = NewAvailabilityService(f.windows, f.providers, clock, log)
	f.checker = NewConflictChecker(f.bookings)
	f.resolver = NewAssignmentResolver(f.providers, f.windows, f.bookings, f.checker, bookingDomain.NewStandardPricingStrategy(), clock, log)
	f.lifecycle = NewStatusLifecycleManager(f.bookings, f.providers, f.queue, publisher, clock, log)
	f.bookingSvc = NewBookingService(f.bookings, f.resolver, f.lifecycle, f.gateway, log)
	f.providerSvc = NewProviderService(f.providers, log)
	f.delivSvc = NewDeliverableService(f.deliverables, f.bookings, log)
	return f
}

func (f *fixture) addProvider(t *testing.T, kind providerDomain.Kind, name string, rating float64, areas ...string) *providerDomain.Provider {
	t.Helper()
	created, err := providerDomain.NewProvider(uuid.New(), kind, providerDomain.Profile{
		Name:            name,
		Email:           name + "@example.com",
		ServiceAreas:    areas,
		HourlyRateCents: 40000,
	})
	require.NoError(t, err)
	p := providerDomain.Reconstruct(created.ID(), created.UserID(), kind, created.Name(), created.Email(), "",
		rating, 1, created.ServiceAreas(), created.HourlyRateCents(), true, 1, created.CreatedAt(), created.UpdatedAt())
	require.NoError(t, f.providers.Save(context.Background(), p))
	return p
}

func (f *fixture) providerActor(p *providerDomain.Provider) auth.Context {
	id := p.ID()
	return auth.Context{UserID: p.UserID(), Role: auth.RoleProvider, ProviderID: &id}
}

// seedBooking stores a booking for p already moved through statuses.
func (f *fixture) seedBooking(t *testing.T, p *providerDomain.Provider, start time.Time, minutes int, statuses ...bookingDomain.BookingStatus) *bookingDomain.Booking {
	t.Helper()
	bk, err := bookingDomain.NewBooking(bookingDomain.NewBookingParams{
		ProviderID:      p.ID(),
		Subject:         bookingDomain.LeadSubject(uuid.New()),
		ScheduledStart:  start,
		DurationMinutes: minutes,
		RequestedBy:     uuid.New(),
	}, fixedNow)
	require.NoError(t, err)
	for _, s := range statuses {
		require.NoError(t, bk.Transition(s, bookingDomain.TransitionPayload{}, fixedNow))
	}
	require.NoError(t, f.bookings.SaveIfFree(context.Background(), bk))
	return bk
}

func cairo(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Africa/Cairo")
	require.NoError(t, err)
	return loc
}

func intPtr(v int) *int { return &v }
