package repo

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	sqlassets "github.com/clubreserve/clubreserve/database"
	"github.com/clubreserve/clubreserve/domains/reservations/be/service"
	"github.com/clubreserve/clubreserve/platform/go/persistence"
)

func mustClubHandle(t *testing.T, ctx context.Context) *persistence.Handle {
	t.Helper()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("clubreserve"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(wait.ForListeningPort("5432/tcp").WithStartupTimeout(2*time.Minute)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = pgContainer.Terminate(context.Background())
	})

	connString, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: connString})
	require.NoError(t, err)
	t.Cleanup(func() {
		persistence.ClosePool(pool)
	})

	_, err = pool.Exec(ctx, sqlassets.ClubDatabaseSQL)
	require.NoError(t, err)

	return persistence.NewHandle(pool)
}

func seedMember(t *testing.T, ctx context.Context, db *persistence.Handle, name string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := db.Pool().Exec(ctx, `
		INSERT INTO members (id, username, full_name, email, password_hash)
		VALUES ($1, $2, $3, $4, 'x')`,
		id, name, name, name+"@example.com")
	require.NoError(t, err)
	return id
}

func reservation(member uuid.UUID, vehicle *uuid.UUID, start, end time.Time) service.Reservation {
	return service.Reservation{
		ID:        uuid.New(),
		MemberID:  member,
		VehicleID: vehicle,
		Date:      time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC),
		Start:     start,
		End:       end,
		Status:    service.StatusActive,
		CreatedAt: time.Now().UTC(),
	}
}

func TestPostgresRepositoryIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping reservations repository integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	db := mustClubHandle(t, ctx)
	r := NewPostgresRepository()

	dana := seedMember(t, ctx, db, "dana")
	milo := seedMember(t, ctx, db, "milo")

	start := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(3 * time.Hour)

	t.Run("overlap predicate is half-open", func(t *testing.T) {
		require.NoError(t, r.CreateAll(ctx, db, []service.Reservation{
			reservation(dana, nil, start, end),
		}))

		c, err := r.FindOverlap(ctx, db, nil, start.Add(time.Hour), end.Add(time.Hour))
		require.NoError(t, err)
		require.NotNil(t, c)
		require.Equal(t, "dana", c.MemberName)

		// Touching boundaries do not conflict.
		c, err = r.FindOverlap(ctx, db, nil, end, end.Add(2*time.Hour))
		require.NoError(t, err)
		require.Nil(t, c)
	})

	t.Run("commit re-check rejects the race loser", func(t *testing.T) {
		raceStart := time.Date(2026, 6, 10, 10, 0, 0, 0, time.UTC)
		raceEnd := raceStart.Add(3 * time.Hour)

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i, member := range []uuid.UUID{dana, milo} {
			wg.Add(1)
			go func(i int, member uuid.UUID) {
				defer wg.Done()
				errs[i] = r.CreateAll(ctx, db, []service.Reservation{
					reservation(member, nil, raceStart, raceEnd),
				})
			}(i, member)
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

		var n int
		require.NoError(t, db.Pool().QueryRow(ctx, `
			SELECT count(*) FROM reservations WHERE start_time = $1`, raceStart).Scan(&n))
		require.Equal(t, 1, n)
	})

	t.Run("multi-vehicle insert is all or nothing", func(t *testing.T) {
		var boatA, boatB uuid.UUID
		require.NoError(t, db.Pool().QueryRow(ctx, `
			INSERT INTO vehicles (id, name) VALUES (gen_random_uuid(), 'Windsong') RETURNING id`).Scan(&boatA))
		require.NoError(t, db.Pool().QueryRow(ctx, `
			INSERT INTO vehicles (id, name) VALUES (gen_random_uuid(), 'Osprey') RETURNING id`).Scan(&boatB))

		mvStart := time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)
		mvEnd := mvStart.Add(3 * time.Hour)

		_, err := db.Pool().Exec(ctx, `
			INSERT INTO blackout_periods (id, vehicle_id, start_time, end_time, reason)
			VALUES (gen_random_uuid(), $1, $2, $3, 'engine service')`,
			boatB, mvStart.Add(-time.Hour), mvEnd.Add(time.Hour))
		require.NoError(t, err)

		err = r.CreateAll(ctx, db, []service.Reservation{
			reservation(dana, &boatA, mvStart, mvEnd),
			reservation(dana, &boatB, mvStart, mvEnd),
		})
		ce, ok := service.IsConflict(err)
		require.True(t, ok, "expected conflict, got %v", err)
		require.Contains(t, ce.Error(), "engine service")

		var n int
		require.NoError(t, db.Pool().QueryRow(ctx, `
			SELECT count(*) FROM reservations WHERE start_time = $1`, mvStart).Scan(&n))
		require.Equal(t, 0, n)
	})

	t.Run("fleet-wide blackout blocks named vehicles", func(t *testing.T) {
		fwStart := time.Date(2026, 6, 20, 10, 0, 0, 0, time.UTC)
		fwEnd := fwStart.Add(3 * time.Hour)
		_, err := db.Pool().Exec(ctx, `
			INSERT INTO blackout_periods (id, vehicle_id, start_time, end_time, reason)
			VALUES (gen_random_uuid(), NULL, $1, $2, 'regatta weekend')`, fwStart, fwEnd)
		require.NoError(t, err)

		var boat uuid.UUID
		require.NoError(t, db.Pool().QueryRow(ctx, `SELECT id FROM vehicles LIMIT 1`).Scan(&boat))

		c, err := r.FindOverlap(ctx, db, &boat, fwStart, fwEnd)
		require.NoError(t, err)
		require.NotNil(t, c)
		require.Equal(t, "regatta weekend", c.BlackoutReason)
	})

	t.Run("cancel transitions once", func(t *testing.T) {
		cStart := time.Date(2026, 6, 25, 10, 0, 0, 0, time.UTC)
		res := reservation(dana, nil, cStart, cStart.Add(3*time.Hour))
		require.NoError(t, r.CreateAll(ctx, db, []service.Reservation{res}))

		at := time.Now().UTC()
		changed, err := r.Cancel(ctx, db, res.ID, at)
		require.NoError(t, err)
		require.True(t, changed)

		changed, err = r.Cancel(ctx, db, res.ID, at)
		require.NoError(t, err)
		require.False(t, changed)

		got, err := r.Get(ctx, db, res.ID)
		require.NoError(t, err)
		require.Equal(t, service.StatusCancelled, got.Status)
		require.NotNil(t, got.CancelledAt)

		// The freed window no longer blocks.
		c, err := r.FindOverlap(ctx, db, nil, cStart, cStart.Add(3*time.Hour))
		require.NoError(t, err)
		require.Nil(t, c)
	})

	t.Run("transition applies only from the expected status", func(t *testing.T) {
		pStart := time.Date(2026, 6, 27, 10, 0, 0, 0, time.UTC)
		res := reservation(milo, nil, pStart, pStart.Add(3*time.Hour))
		res.Status = service.StatusPendingApproval
		require.NoError(t, r.CreateAll(ctx, db, []service.Reservation{res}))

		changed, err := r.Transition(ctx, db, res.ID, service.StatusPendingApproval, service.StatusActive, time.Now().UTC())
		require.NoError(t, err)
		require.True(t, changed)

		changed, err = r.Transition(ctx, db, res.ID, service.StatusPendingApproval, service.StatusActive, time.Now().UTC())
		require.NoError(t, err)
		require.False(t, changed)
	})

	t.Run("blocking dates are distinct days", func(t *testing.T) {
		dates, err := r.BlockingDates(ctx, db, dana, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		seen := make(map[string]bool)
		for _, d := range dates {
			key := d.Format("2006-01-02")
			require.False(t, seen[key], "duplicate date %s", key)
			seen[key] = true
		}
	})

	t.Run("get missing reservation", func(t *testing.T) {
		_, err := r.Get(ctx, db, uuid.New())
		require.ErrorIs(t, err, service.ErrNotFound)
	})
}
