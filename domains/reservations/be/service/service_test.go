package service_test

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	fleetrepo "github.com/clubreserve/clubreserve/domains/fleet/be/repo"
	fleetservice "github.com/clubreserve/clubreserve/domains/fleet/be/service"
	membersrepo "github.com/clubreserve/clubreserve/domains/members/be/repo"
	membersservice "github.com/clubreserve/clubreserve/domains/members/be/service"
	"github.com/clubreserve/clubreserve/domains/reservations/be/repo"
	"github.com/clubreserve/clubreserve/domains/reservations/be/service"
	settingsrepo "github.com/clubreserve/clubreserve/domains/settings/be/repo"
	settingsservice "github.com/clubreserve/clubreserve/domains/settings/be/service"
	waitlistrepo "github.com/clubreserve/clubreserve/domains/waitlist/be/repo"
	waitlistservice "github.com/clubreserve/clubreserve/domains/waitlist/be/service"
	"github.com/clubreserve/clubreserve/platform/go/club"
	"github.com/clubreserve/clubreserve/platform/go/metrics"
	"github.com/clubreserve/clubreserve/platform/go/notify"
)

type sentMessage struct {
	To      notify.Contact
	Subject string
	Body    string
}

// recordingSender captures every notification for assertions.
type recordingSender struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (s *recordingSender) Send(to notify.Contact, subject, body string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentMessage{To: to, Subject: subject, Body: body})
	return true
}

func (s *recordingSender) bySubject(fragment string) []sentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []sentMessage
	for _, m := range s.sent {
		if strings.Contains(m.Subject, fragment) {
			out = append(out, m)
		}
	}
	return out
}

type fixture struct {
	svc      *service.Service
	repo     *repo.MemoryRepository
	members  *membersrepo.MemoryRepository
	fleet    *fleetservice.Service
	waitlist *waitlistservice.Service
	waitRepo *waitlistrepo.MemoryRepository
	sender   *recordingSender
	cc       club.Context
	now      time.Time
}

func newFixture(t *testing.T, seed settingsservice.Settings) *fixture {
	t.Helper()

	resRepo := repo.NewMemoryRepository()
	memberRepo := membersrepo.NewMemoryRepository()
	fleet := fleetservice.New(fleetrepo.NewMemoryRepository())
	waitRepo := waitlistrepo.NewMemoryRepository()
	sender := &recordingSender{}
	eng := metrics.NewEngineForTest()
	logger := zap.NewNop()
	now := time.Date(2026, 5, 20, 8, 0, 0, 0, time.UTC)

	waitlist := waitlistservice.New(waitlistservice.Config{
		Repo:       waitRepo,
		Sender:     sender,
		Metrics:    eng,
		Logger:     logger,
		BaseDomain: "clubreserve.test",
		Now:        func() time.Time { return now },
	})

	svc := service.New(service.Config{
		Repo:       resRepo,
		Members:    membersservice.New(memberRepo),
		Settings:   settingsservice.New(settingsrepo.NewMemoryRepository(seed)),
		Fleet:      fleet,
		Sender:     sender,
		Metrics:    eng,
		Logger:     logger,
		BaseDomain: "clubreserve.test",
		Waitlist:   waitlist,
		Now:        func() time.Time { return now },
	})

	return &fixture{
		svc:      svc,
		repo:     resRepo,
		members:  memberRepo,
		fleet:    fleet,
		waitlist: waitlist,
		waitRepo: waitRepo,
		sender:   sender,
		cc: club.Context{Club: club.Club{
			ID:          1,
			Name:        "Clear Lake Boat Club",
			ShortName:   "clearlake",
			VehicleType: club.VehicleBoat,
			Subdomain:   "clearlake",
			IsActive:    true,
		}},
		now: now,
	}
}

func (f *fixture) addMember(t *testing.T, name string, admin bool) uuid.UUID {
	t.Helper()
	m := membersservice.Member{
		ID:       uuid.New(),
		Username: strings.ToLower(strings.ReplaceAll(name, " ", ".")),
		FullName: name,
		Email:    strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
		IsAdmin:  admin,
		IsActive: true,
	}
	f.members.Put(m)
	f.repo.Names[m.ID] = name
	f.waitRepo.Contacts[m.ID] = notify.Contact{Email: m.Email, FullName: name}
	return m.ID
}

func (f *fixture) addVehicle(t *testing.T, name string) uuid.UUID {
	t.Helper()
	v, err := f.fleet.CreateVehicle(context.Background(), nil, name, "")
	require.NoError(t, err)
	return v.ID
}

func window(dd, hh int) (time.Time, time.Time) {
	start := time.Date(2026, 6, dd, hh, 0, 0, 0, time.UTC)
	return start, start.Add(3 * time.Hour)
}

func TestBookSingleVehicle(t *testing.T) {
	f := newFixture(t, settingsservice.Settings{})
	member := f.addMember(t, "Dana Whitfield", false)
	start, end := window(1, 10)

	rs, err := f.svc.Book(context.Background(), f.cc, service.BookInput{
		MemberID: member,
		Start:    start,
		End:      end,
	})
	require.NoError(t, err)
	require.Len(t, rs, 1)
	require.Equal(t, service.StatusActive, rs[0].Status)
	require.Nil(t, rs[0].VehicleID)
	require.Equal(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), rs[0].Date)

	confirmations := f.sender.bySubject("Reservation Confirmed")
	require.Len(t, confirmations, 1)
	require.Equal(t, "dana.whitfield@example.com", confirmations[0].To.Email)
}

func TestBookValidationAggregatesProblems(t *testing.T) {
	f := newFixture(t, settingsservice.Settings{})
	member := f.addMember(t, "Dana Whitfield", false)

	// One hour long (below the 2h floor) and 90 days out (past the 60 day
	// horizon): both problems must come back in one response.
	start := time.Date(2026, 8, 18, 10, 0, 0, 0, time.UTC)
	_, err := f.svc.Book(context.Background(), f.cc, service.BookInput{
		MemberID: member,
		Start:    start,
		End:      start.Add(time.Hour),
	})
	ve, ok := service.IsValidation(err)
	require.True(t, ok, "expected validation error, got %v", err)
	require.Len(t, ve, 2)
}

func TestBookRejectsPastAndInvertedWindows(t *testing.T) {
	f := newFixture(t, settingsservice.Settings{})
	member := f.addMember(t, "Dana Whitfield", false)

	start, end := window(1, 10)
	_, err := f.svc.Book(context.Background(), f.cc, service.BookInput{
		MemberID: member, Start: end, End: start,
	})
	_, ok := service.IsValidation(err)
	require.True(t, ok)

	past := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	_, err = f.svc.Book(context.Background(), f.cc, service.BookInput{
		MemberID: member, Start: past, End: past.Add(3 * time.Hour),
	})
	_, ok = service.IsValidation(err)
	require.True(t, ok)
}

func TestBookEnforcesPendingLimit(t *testing.T) {
	f := newFixture(t, settingsservice.Settings{settingsservice.KeyMaxPending: "3"})
	member := f.addMember(t, "Dana Whitfield", false)

	for _, dd := range []int{1, 3, 5} {
		start, end := window(dd, 10)
		_, err := f.svc.Book(context.Background(), f.cc, service.BookInput{
			MemberID: member, Start: start, End: end,
		})
		require.NoError(t, err)
	}

	start, end := window(7, 10)
	_, err := f.svc.Book(context.Background(), f.cc, service.BookInput{
		MemberID: member, Start: start, End: end,
	})
	ve, ok := service.IsValidation(err)
	require.True(t, ok)
	require.Contains(t, ve.Error(), "limit 3")
}

func TestCancellationFreesPendingCapacity(t *testing.T) {
	f := newFixture(t, settingsservice.Settings{settingsservice.KeyMaxPending: "1"})
	member := f.addMember(t, "Dana Whitfield", false)

	start, end := window(1, 10)
	rs, err := f.svc.Book(context.Background(), f.cc, service.BookInput{
		MemberID: member, Start: start, End: end,
	})
	require.NoError(t, err)

	start2, end2 := window(3, 10)
	_, err = f.svc.Book(context.Background(), f.cc, service.BookInput{
		MemberID: member, Start: start2, End: end2,
	})
	_, ok := service.IsValidation(err)
	require.True(t, ok)

	_, err = f.svc.Cancel(context.Background(), f.cc, rs[0].ID, service.Actor{MemberID: member})
	require.NoError(t, err)

	_, err = f.svc.Book(context.Background(), f.cc, service.BookInput{
		MemberID: member, Start: start2, End: end2,
	})
	require.NoError(t, err)
}

func TestBookEnforcesConsecutiveRun(t *testing.T) {
	f := newFixture(t, settingsservice.Settings{})
	member := f.addMember(t, "Dana Whitfield", false)

	for _, dd := range []int{1, 2, 3} {
		start, end := window(dd, 10)
		_, err := f.svc.Book(context.Background(), f.cc, service.BookInput{
			MemberID: member, Start: start, End: end,
		})
		require.NoError(t, err)
	}

	// June 4 would make a four-day run.
	start, end := window(4, 10)
	_, err := f.svc.Book(context.Background(), f.cc, service.BookInput{
		MemberID: member, Start: start, End: end,
	})
	ve, ok := service.IsValidation(err)
	require.True(t, ok)
	require.Contains(t, ve.Error(), "consecutive")

	// June 5 leaves a gap and is fine.
	start, end = window(5, 10)
	_, err = f.svc.Book(context.Background(), f.cc, service.BookInput{
		MemberID: member, Start: start, End: end,
	})
	require.NoError(t, err)
}

func TestBookConflictNamesTheHolder(t *testing.T) {
	f := newFixture(t, settingsservice.Settings{})
	first := f.addMember(t, "Dana Whitfield", false)
	second := f.addMember(t, "Milo Grant", false)

	start, end := window(1, 10)
	_, err := f.svc.Book(context.Background(), f.cc, service.BookInput{
		MemberID: first, Start: start, End: end,
	})
	require.NoError(t, err)

	// Overlapping request loses and learns who holds the window.
	_, err = f.svc.Book(context.Background(), f.cc, service.BookInput{
		MemberID: second, Start: start.Add(time.Hour), End: end.Add(time.Hour),
	})
	ce, ok := service.IsConflict(err)
	require.True(t, ok, "expected conflict, got %v", err)
	require.Contains(t, ce.Error(), "Dana Whitfield")

	// Back-to-back is not an overlap: [10,13) then [13,16).
	_, err = f.svc.Book(context.Background(), f.cc, service.BookInput{
		MemberID: second, Start: end, End: end.Add(3 * time.Hour),
	})
	require.NoError(t, err)
}

func TestPendingReservationBlocksWindow(t *testing.T) {
	f := newFixture(t, settingsservice.Settings{settingsservice.KeyApprovalRequired: "true"})
	f.addMember(t, "Avery Admin", true)
	first := f.addMember(t, "Dana Whitfield", false)
	second := f.addMember(t, "Milo Grant", false)

	start, end := window(1, 10)
	rs, err := f.svc.Book(context.Background(), f.cc, service.BookInput{
		MemberID: first, Start: start, End: end,
	})
	require.NoError(t, err)
	require.Equal(t, service.StatusPendingApproval, rs[0].Status)

	_, err = f.svc.Book(context.Background(), f.cc, service.BookInput{
		MemberID: second, Start: start, End: end,
	})
	_, ok := service.IsConflict(err)
	require.True(t, ok)
}

func TestMultiVehicleBookingIsAtomic(t *testing.T) {
	f := newFixture(t, settingsservice.Settings{})
	member := f.addMember(t, "Dana Whitfield", false)
	boatA := f.addVehicle(t, "Windsong")
	boatB := f.addVehicle(t, "Osprey")

	start, end := window(1, 10)
	f.repo.AddBlackout(fleetservice.Blackout{
		ID:        uuid.New(),
		VehicleID: &boatB,
		Start:     start.Add(-time.Hour),
		End:       end.Add(time.Hour),
		Reason:    "engine service",
	})

	_, err := f.svc.Book(context.Background(), f.cc, service.BookInput{
		MemberID:   member,
		VehicleIDs: []uuid.UUID{boatA, boatB},
		Start:      start,
		End:        end,
	})
	ce, ok := service.IsConflict(err)
	require.True(t, ok, "expected conflict, got %v", err)
	require.Contains(t, ce.Error(), "engine service")

	// Nothing committed, the clear vehicle included.
	require.Empty(t, f.repo.All())
}

func TestMultiVehicleRequiresGrid(t *testing.T) {
	f := newFixture(t, settingsservice.Settings{})
	member := f.addMember(t, "Dana Whitfield", false)
	boat := f.addVehicle(t, "Windsong")

	start := time.Date(2026, 6, 1, 10, 15, 0, 0, time.UTC)
	_, err := f.svc.Book(context.Background(), f.cc, service.BookInput{
		MemberID:   member,
		VehicleIDs: []uuid.UUID{boat},
		Start:      start,
		End:        start.Add(3 * time.Hour),
	})
	ve, ok := service.IsValidation(err)
	require.True(t, ok)
	require.Contains(t, ve.Error(), "30-minute")
}

func TestBookRejectsUnknownAndRetiredVehicles(t *testing.T) {
	f := newFixture(t, settingsservice.Settings{})
	member := f.addMember(t, "Dana Whitfield", false)
	boat := f.addVehicle(t, "Windsong")
	require.NoError(t, f.fleet.RetireVehicle(context.Background(), nil, boat))

	start, end := window(1, 10)
	_, err := f.svc.Book(context.Background(), f.cc, service.BookInput{
		MemberID:   member,
		VehicleIDs: []uuid.UUID{boat, uuid.New()},
		Start:      start,
		End:        end,
	})
	ve, ok := service.IsValidation(err)
	require.True(t, ok)
	require.Len(t, ve, 2)
}

func TestConcurrentBookingsOneWinner(t *testing.T) {
	f := newFixture(t, settingsservice.Settings{})
	start, end := window(1, 10)

	const contenders = 8
	members := make([]uuid.UUID, contenders)
	for i := range members {
		members[i] = f.addMember(t, "Member "+string(rune('A'+i)), false)
	}

	var wg sync.WaitGroup
	errs := make([]error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Book(context.Background(), f.cc, service.BookInput{
				MemberID: members[i],
				Start:    start,
				End:      end,
			})
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		_, ok := service.IsConflict(err)
		require.True(t, ok, "loser must see a conflict, got %v", err)
	}
	require.Equal(t, 1, winners)
	require.Len(t, f.repo.All(), 1)
}

func TestCancelIsIdempotent(t *testing.T) {
	f := newFixture(t, settingsservice.Settings{})
	owner := f.addMember(t, "Dana Whitfield", false)
	waiting := f.addMember(t, "Milo Grant", false)

	start, end := window(1, 10)
	rs, err := f.svc.Book(context.Background(), f.cc, service.BookInput{
		MemberID: owner, Start: start, End: end,
	})
	require.NoError(t, err)

	_, err = f.waitlist.Join(context.Background(), f.cc, waiting, rs[0].Date, "")
	require.NoError(t, err)

	out, err := f.svc.Cancel(context.Background(), f.cc, rs[0].ID, service.Actor{MemberID: owner})
	require.NoError(t, err)
	require.False(t, out.AlreadyCancelled)
	require.Equal(t, service.StatusCancelled, out.Reservation.Status)
	require.Len(t, f.sender.bySubject("Available"), 1)

	// Second cancel reports the state without re-notifying anyone.
	out, err = f.svc.Cancel(context.Background(), f.cc, rs[0].ID, service.Actor{MemberID: owner})
	require.NoError(t, err)
	require.True(t, out.AlreadyCancelled)
	require.Len(t, f.sender.bySubject("Available"), 1)
}

func TestCancelAuthorization(t *testing.T) {
	f := newFixture(t, settingsservice.Settings{})
	owner := f.addMember(t, "Dana Whitfield", false)
	other := f.addMember(t, "Milo Grant", false)
	admin := f.addMember(t, "Avery Admin", true)

	start, end := window(1, 10)
	rs, err := f.svc.Book(context.Background(), f.cc, service.BookInput{
		MemberID: owner, Start: start, End: end,
	})
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), f.cc, rs[0].ID, service.Actor{MemberID: other})
	require.ErrorIs(t, err, service.ErrUnauthorized)

	_, err = f.svc.Cancel(context.Background(), f.cc, rs[0].ID, service.Actor{MemberID: admin, IsAdmin: true})
	require.NoError(t, err)
}

func TestApprovalWorkflow(t *testing.T) {
	f := newFixture(t, settingsservice.Settings{settingsservice.KeyApprovalRequired: "true"})
	f.addMember(t, "Avery Admin", true)
	member := f.addMember(t, "Dana Whitfield", false)

	start, end := window(1, 10)
	rs, err := f.svc.Book(context.Background(), f.cc, service.BookInput{
		MemberID: member, Start: start, End: end,
	})
	require.NoError(t, err)
	require.Equal(t, service.StatusPendingApproval, rs[0].Status)
	require.Len(t, f.sender.bySubject("Approval Needed"), 1)

	approved, err := f.svc.Approve(context.Background(), f.cc, rs[0].ID)
	require.NoError(t, err)
	require.Equal(t, service.StatusActive, approved.Status)
	require.Len(t, f.sender.bySubject("Reservation Approved"), 1)

	// Approving twice is a visible no-op.
	_, err = f.svc.Approve(context.Background(), f.cc, rs[0].ID)
	require.ErrorIs(t, err, service.ErrNoTransition)
}

func TestDenyFreesTheWindow(t *testing.T) {
	f := newFixture(t, settingsservice.Settings{settingsservice.KeyApprovalRequired: "true"})
	f.addMember(t, "Avery Admin", true)
	member := f.addMember(t, "Dana Whitfield", false)
	waiting := f.addMember(t, "Milo Grant", false)

	start, end := window(1, 10)
	rs, err := f.svc.Book(context.Background(), f.cc, service.BookInput{
		MemberID: member, Start: start, End: end,
	})
	require.NoError(t, err)

	_, err = f.waitlist.Join(context.Background(), f.cc, waiting, rs[0].Date, "")
	require.NoError(t, err)

	denied, err := f.svc.Deny(context.Background(), f.cc, rs[0].ID)
	require.NoError(t, err)
	require.Equal(t, service.StatusCancelled, denied.Status)
	require.Len(t, f.sender.bySubject("Available"), 1)
}

func TestCalendarIncludesCancelled(t *testing.T) {
	f := newFixture(t, settingsservice.Settings{})
	member := f.addMember(t, "Dana Whitfield", false)

	start, end := window(1, 10)
	rs, err := f.svc.Book(context.Background(), f.cc, service.BookInput{
		MemberID: member, Start: start, End: end,
	})
	require.NoError(t, err)
	_, err = f.svc.Cancel(context.Background(), f.cc, rs[0].ID, service.Actor{MemberID: member})
	require.NoError(t, err)

	entries, err := f.svc.Day(context.Background(), f.cc, start)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, service.StatusCancelled, entries[0].Status)
	require.Equal(t, "Dana Whitfield", entries[0].MemberName)
}

// windowsCollide reports whether two reservations both block and hold
// intersecting windows on the same vehicle. A nil vehicle is fleet-wide and
// collides with every vehicle.
func windowsCollide(a, b service.Reservation) bool {
	if !a.Status.Blocking() || !b.Status.Blocking() {
		return false
	}
	if a.VehicleID != nil && b.VehicleID != nil && *a.VehicleID != *b.VehicleID {
		return false
	}
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

func TestRandomizedBookCancelKeepsWindowsExclusive(t *testing.T) {
	f := newFixture(t, settingsservice.Settings{
		settingsservice.KeyMaxPending:         "500",
		settingsservice.KeyMaxConsecutiveDays: "31",
	})
	rng := rand.New(rand.NewSource(1917))

	members := make([]uuid.UUID, 6)
	for i := range members {
		members[i] = f.addMember(t, fmt.Sprintf("Member %c", 'A'+i), false)
	}
	vehicles := make([]uuid.UUID, 3)
	for i, name := range []string{"Osprey", "Kestrel", "Heron"} {
		vehicles[i] = f.addVehicle(t, name)
	}
	operator := service.Actor{MemberID: f.addMember(t, "Avery Admin", true), IsAdmin: true}

	ctx := context.Background()
	var booked []uuid.UUID
	granted := 0

	for op := 0; op < 400; op++ {
		if len(booked) > 0 && rng.Intn(10) < 3 {
			id := booked[rng.Intn(len(booked))]
			_, err := f.svc.Cancel(ctx, f.cc, id, operator)
			require.NoError(t, err)
		} else {
			// Random half-hour grid window, two to six hours long, on a
			// random June day.
			start := time.Date(2026, 6, 1+rng.Intn(28), 6+rng.Intn(12), 30*rng.Intn(2), 0, 0, time.UTC)
			in := service.BookInput{
				MemberID: members[rng.Intn(len(members))],
				Start:    start,
				End:      start.Add(time.Duration(4+rng.Intn(9)) * 30 * time.Minute),
			}
			// Mostly named vehicles, sometimes a fleet-wide hold.
			if rng.Intn(6) > 0 {
				in.VehicleIDs = []uuid.UUID{vehicles[rng.Intn(len(vehicles))]}
			}
			rs, err := f.svc.Book(ctx, f.cc, in)
			if err == nil {
				granted++
				for _, r := range rs {
					booked = append(booked, r.ID)
				}
			} else {
				_, isValidation := service.IsValidation(err)
				_, isConflict := service.IsConflict(err)
				require.True(t, isValidation || isConflict, "unexpected error: %v", err)
			}
		}

		all := f.repo.All()
		for i := range all {
			for j := i + 1; j < len(all); j++ {
				require.False(t, windowsCollide(all[i], all[j]),
					"op %d: reservations %s and %s overlap", op, all[i].ID, all[j].ID)
			}
		}
	}
	require.Greater(t, granted, 50, "the sequence barely exercised the happy path")
}
