// Package service implements the club registry: resolution of an inbound
// host to a club record and the connection target for that club's isolated
// database.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/clubreserve/clubreserve/platform/go/club"
	"github.com/clubreserve/clubreserve/platform/go/secrets"
)

// Errors returned by the registry service.
var (
	// ErrNotFound means no active club matches. Callers must treat this as a
	// hard failure; serving a default club would be a data-isolation breach.
	ErrNotFound = errors.New("club not found")
	ErrConflict = errors.New("club short name already exists")
)

// Repository abstracts the master registry store.
type Repository interface {
	GetByShortName(ctx context.Context, shortName string) (club.Club, error)
	List(ctx context.Context) ([]club.Club, error)
	Create(ctx context.Context, c club.Club) (club.Club, error)
	Deactivate(ctx context.Context, shortName string) error
	// AppendAudit records an administrative action. Implementations must
	// swallow their own failures; the audit log is best-effort.
	AppendAudit(ctx context.Context, entry AuditEntry)
}

// AuditEntry is one append-only administrative action record.
type AuditEntry struct {
	AdminID    *int64
	Action     string
	TargetType string
	TargetID   int64
	Detail     map[string]any
}

// CreateInput is the request to register a club. Physical database
// provisioning happens outside this service; only the registry row is written.
type CreateInput struct {
	Name         string
	ShortName    string
	VehicleType  club.VehicleType
	DBName       string
	DBUser       string
	ContactEmail string
	Timezone     string
}

// Service resolves clubs and manages the registry.
type Service struct {
	repo      Repository
	cache     *Cache
	secrets   secrets.Store
	sharedDSN string
	pgHost    string
	pgPort    string
	logger    *zap.Logger
}

// Config carries the Service dependencies.
type Config struct {
	Repo    Repository
	Cache   *Cache
	Secrets secrets.Store
	// SharedDSN is the single-club fallback connection target, used when a
	// club row carries no dedicated credentials or the secret is absent.
	SharedDSN string
	PGHost    string
	PGPort    string
	Logger    *zap.Logger
}

// New constructs a registry Service.
func New(cfg Config) *Service {
	if cfg.Repo == nil {
		panic("registry repo is required")
	}
	if cfg.Cache == nil {
		panic("registry cache is required")
	}
	if cfg.Secrets == nil {
		panic("secret store is required")
	}
	if cfg.Logger == nil {
		panic("logger is required")
	}

	pgHost := cfg.PGHost
	if pgHost == "" {
		pgHost = "localhost"
	}
	pgPort := cfg.PGPort
	if pgPort == "" {
		pgPort = "5432"
	}

	return &Service{
		repo:      cfg.Repo,
		cache:     cfg.Cache,
		secrets:   cfg.Secrets,
		sharedDSN: cfg.SharedDSN,
		pgHost:    pgHost,
		pgPort:    pgPort,
		logger:    cfg.Logger,
	}
}

// Resolve maps an inbound host to an active club. The short name comes from
// the first host label; cache hits skip the registry read entirely. Cache
// entries never expire on their own: club records change only through
// administrative actions, which invalidate explicitly.
func (s *Service) Resolve(ctx context.Context, host string) (club.Club, error) {
	shortName := club.ShortNameFromHost(host)
	if shortName == "" {
		return club.Club{}, fmt.Errorf("%w: host %q carries no club label", ErrNotFound, host)
	}
	return s.ResolveShortName(ctx, shortName)
}

// ResolveShortName looks a club up by its short identifier.
func (s *Service) ResolveShortName(ctx context.Context, shortName string) (club.Club, error) {
	if c, ok := s.cache.Get(shortName); ok {
		return c, nil
	}

	c, err := s.repo.GetByShortName(ctx, shortName)
	if err != nil {
		return club.Club{}, err
	}

	s.cache.Put(c)
	return c, nil
}

// DSN derives the connection target for a club's database. Clubs without
// dedicated credentials, and clubs whose password secret is absent, fall back
// to the shared single-club target.
func (s *Service) DSN(c club.Club) string {
	if c.SharedDatabase() {
		return s.sharedDSN
	}

	password, ok := s.secrets.Lookup(secrets.DBPasswordName(c.DBUser))
	if !ok {
		s.logger.Warn("club db password secret missing, using shared target",
			zap.String("club", c.ShortName),
			zap.String("db_user", c.DBUser),
		)
		return s.sharedDSN
	}

	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s", c.DBUser, password, s.pgHost, s.pgPort, c.DBName)
}

// List returns every registry row, active or not.
func (s *Service) List(ctx context.Context) ([]club.Club, error) {
	return s.repo.List(ctx)
}

// Create registers a new club and records the action.
func (s *Service) Create(ctx context.Context, input CreateInput) (club.Club, error) {
	shortName := strings.ToLower(strings.TrimSpace(input.ShortName))
	if shortName == "" {
		return club.Club{}, fmt.Errorf("short name is required")
	}
	if input.VehicleType != club.VehicleBoat && input.VehicleType != club.VehiclePlane {
		return club.Club{}, fmt.Errorf("vehicle type must be boat or plane")
	}

	timezone := input.Timezone
	if timezone == "" {
		timezone = "America/Chicago"
	}

	created, err := s.repo.Create(ctx, club.Club{
		Name:         input.Name,
		ShortName:    shortName,
		VehicleType:  input.VehicleType,
		DBName:       input.DBName,
		DBUser:       input.DBUser,
		Subdomain:    shortName,
		ContactEmail: input.ContactEmail,
		Timezone:     timezone,
		IsActive:     true,
	})
	if err != nil {
		return club.Club{}, err
	}

	s.repo.AppendAudit(ctx, AuditEntry{
		Action:     "club_created",
		TargetType: "club",
		TargetID:   created.ID,
		Detail:     map[string]any{"short_name": created.ShortName, "vehicle_type": string(created.VehicleType)},
	})

	// A re-registration after deactivation must not serve the stale entry.
	s.cache.Invalidate(shortName)

	return created, nil
}

// Deactivate flags a club inactive and synchronously drops it from the
// resolver cache so no later request routes to it.
func (s *Service) Deactivate(ctx context.Context, shortName string) error {
	c, err := s.repo.GetByShortName(ctx, shortName)
	if err != nil {
		return err
	}

	if err := s.repo.Deactivate(ctx, shortName); err != nil {
		return err
	}

	s.cache.Invalidate(shortName)

	s.repo.AppendAudit(ctx, AuditEntry{
		Action:     "club_deactivated",
		TargetType: "club",
		TargetID:   c.ID,
		Detail:     map[string]any{"short_name": shortName},
	})

	return nil
}

// InvalidateCache drops one entry, or every entry when shortName is empty.
// Exposed for administrative tooling after out-of-band registry changes.
func (s *Service) InvalidateCache(shortName string) {
	if shortName == "" {
		s.cache.InvalidateAll()
		return
	}
	s.cache.Invalidate(shortName)
}
