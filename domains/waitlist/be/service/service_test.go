package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clubreserve/clubreserve/domains/waitlist/be/repo"
	"github.com/clubreserve/clubreserve/domains/waitlist/be/service"
	"github.com/clubreserve/clubreserve/platform/go/club"
	"github.com/clubreserve/clubreserve/platform/go/metrics"
	"github.com/clubreserve/clubreserve/platform/go/notify"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []notify.Contact
	ok   bool
}

func (s *recordingSender) Send(to notify.Contact, subject, body string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, to)
	return s.ok
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func newService(t *testing.T, sender *recordingSender) (*service.Service, *repo.MemoryRepository, club.Context) {
	t.Helper()
	store := repo.NewMemoryRepository()
	svc := service.New(service.Config{
		Repo:       store,
		Sender:     sender,
		Metrics:    metrics.NewEngineForTest(),
		Logger:     zap.NewNop(),
		BaseDomain: "clubreserve.test",
		Now: func() time.Time {
			return time.Date(2026, 5, 20, 8, 0, 0, 0, time.UTC)
		},
	})
	cc := club.Context{Club: club.Club{
		Name:        "Clear Lake Boat Club",
		ShortName:   "clearlake",
		VehicleType: club.VehicleBoat,
		Subdomain:   "clearlake",
	}}
	return svc, store, cc
}

func addContact(store *repo.MemoryRepository, name, email string) uuid.UUID {
	id := uuid.New()
	store.Contacts[id] = notify.Contact{Email: email, FullName: name}
	return id
}

func TestJoinIsIdempotent(t *testing.T) {
	sender := &recordingSender{ok: true}
	svc, store, cc := newService(t, sender)
	member := addContact(store, "Dana Whitfield", "dana@example.com")
	date := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	first, err := svc.Join(context.Background(), cc, member, date, "any boat works")
	require.NoError(t, err)

	second, err := svc.Join(context.Background(), cc, member, date, "changed my mind on notes")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Len(t, store.Entries(), 1)
}

func TestJoinRejectsPastDates(t *testing.T) {
	sender := &recordingSender{ok: true}
	svc, store, cc := newService(t, sender)
	member := addContact(store, "Dana Whitfield", "dana@example.com")

	_, err := svc.Join(context.Background(), cc, member, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), "")
	require.Error(t, err)
}

func TestLeaveIsIdempotent(t *testing.T) {
	sender := &recordingSender{ok: true}
	svc, store, cc := newService(t, sender)
	member := addContact(store, "Dana Whitfield", "dana@example.com")
	date := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.Join(context.Background(), cc, member, date, "")
	require.NoError(t, err)
	require.NoError(t, svc.Leave(context.Background(), cc, member, date))
	require.NoError(t, svc.Leave(context.Background(), cc, member, date))
	require.Empty(t, store.Entries())
}

func TestOnCancellationNotifiesEachWaiterOnce(t *testing.T) {
	sender := &recordingSender{ok: true}
	svc, store, cc := newService(t, sender)
	date := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	for _, name := range []string{"Dana Whitfield", "Milo Grant"} {
		member := addContact(store, name, name+"@example.com")
		_, err := svc.Join(context.Background(), cc, member, date, "")
		require.NoError(t, err)
	}
	otherDay := addContact(store, "Sam Rivers", "sam@example.com")
	_, err := svc.Join(context.Background(), cc, otherDay, date.AddDate(0, 0, 1), "")
	require.NoError(t, err)

	svc.OnCancellation(context.Background(), cc, date)
	require.Equal(t, 2, sender.count())

	// A second cancellation on the same date finds everyone already
	// notified and sends nothing.
	svc.OnCancellation(context.Background(), cc, date)
	require.Equal(t, 2, sender.count())

	for _, e := range store.Entries() {
		if e.DesiredDate.Equal(date) {
			require.True(t, e.Notified)
		} else {
			require.False(t, e.Notified)
		}
	}
}

func TestOnCancellationMarksNotifiedEvenWhenSendFails(t *testing.T) {
	sender := &recordingSender{ok: false}
	svc, store, cc := newService(t, sender)
	date := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	member := addContact(store, "Dana Whitfield", "dana@example.com")
	_, err := svc.Join(context.Background(), cc, member, date, "")
	require.NoError(t, err)

	svc.OnCancellation(context.Background(), cc, date)
	entries := store.Entries()
	require.Len(t, entries, 1)
	require.True(t, entries[0].Notified)
}
