// Package social implements the user-facing operations of circlemind: blocks, friendships,
// posts, comments, reactions, stories, notifications and moderation appeals.
//
// Every operation runs the same pipeline: the relationship resolver answers block and friend
// questions, the audience policy authorizes or filters, and list operations go through the
// query builder.
package social

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/steemit/circlemind/internal/apperr"
	"github.com/steemit/circlemind/internal/db"
	"github.com/steemit/circlemind/internal/models"
	"github.com/steemit/circlemind/internal/query"
	"github.com/steemit/circlemind/internal/relation"
	"github.com/steemit/circlemind/pkg/config"
	"github.com/steemit/circlemind/pkg/logging"
	"github.com/steemit/circlemind/pkg/telemetry"
)

// Actor is the authenticated user a call runs for.
type Actor struct {
	ID   string
	Role string
}

// IsAdmin reports whether the actor may moderate content.
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin || a.Role == models.RoleSuperAdmin
}

// Config holds the limits and time windows the services apply.
type Config struct {
	DefaultLimit             int
	MaxLimit                 int
	DefaultSort              string
	StoryTTL                 time.Duration
	RejectedRequestRetention time.Duration
}

// ConfigFrom extracts the service configuration from the application config.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		DefaultLimit:             cfg.Pagination.DefaultLimit,
		MaxLimit:                 cfg.Pagination.MaxLimit,
		DefaultSort:              cfg.Pagination.DefaultSort,
		StoryTTL:                 cfg.Social.StoryTTL,
		RejectedRequestRetention: cfg.Social.RejectedRequestRetention,
	}
}

// DefaultConfig matches the application defaults.
func DefaultConfig() Config {
	return Config{
		DefaultLimit:             query.DefaultLimit,
		MaxLimit:                 100,
		DefaultSort:              "-created_at",
		StoryTTL:                 24 * time.Hour,
		RejectedRequestRetention: 7 * 24 * time.Hour,
	}
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger replaces the component logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// Service runs the social operations against one store.
type Service struct {
	store    *db.Store
	resolver *relation.Resolver
	notifier *Notifier
	cfg      Config
	logger   *zap.Logger
	now      func() time.Time
}

// New creates a service. A nil notifier stores notifications without publishing events.
func New(store *db.Store, resolver *relation.Resolver, notifier *Notifier, cfg Config, opts ...Option) *Service {
	if notifier == nil {
		notifier = NewNotifier(store.Notifications, nil)
	}
	s := &Service{
		store:    store,
		resolver: resolver,
		notifier: notifier,
		cfg:      cfg,
		logger:   logging.WithComponent("social"),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolver exposes the relationship resolver the service uses.
func (s *Service) Resolver() *relation.Resolver {
	return s.resolver
}

// startSpan opens a span named after the operation. The returned func records *errp on the span
// and ends it; defer it with the address of the named error result.
func startSpan(ctx context.Context, op string) (context.Context, func(errp *error)) {
	ctx, span := telemetry.StartSpan(ctx, "social."+op)
	return ctx, func(errp *error) {
		if errp != nil {
			telemetry.RecordError(span, *errp)
		}
		span.End()
	}
}

func (s *Service) log(ctx context.Context) *zap.Logger {
	return logging.FromContext(ctx, s.logger)
}

// list starts a query builder over q with the service's limit clamp.
func list[T any](s *Service, q *gorm.DB, params query.Params) *query.Builder[T] {
	return query.New[T](q, params, query.WithMaxLimit(s.cfg.MaxLimit))
}

// pageOnly keeps the paging and sorting keys of params, for lists that do not accept filters.
func pageOnly(params query.Params) query.Params {
	out := query.Params{}
	for _, k := range []string{query.KeyPage, query.KeyLimit, query.KeySort} {
		if v, ok := params[k]; ok {
			out[k] = v
		}
	}
	return out
}

func required(name, value string) error {
	if value == "" {
		return apperr.Validation("%s is required", name)
	}
	return nil
}

// activeUser loads a user that must exist and be active. missing is the NotFound message.
func (s *Service) activeUser(ctx context.Context, id, missing string) (*models.User, error) {
	user, err := s.store.Users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFoundf("%s", missing)
	}
	if user.Status != models.UserStatusActive {
		return nil, apperr.Validation("The user is not active")
	}
	return user, nil
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func strPtr(s string) *string {
	return &s
}
