package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/charlesng35/gitteams/internal/cache"
	"github.com/charlesng35/gitteams/internal/github"
	"github.com/charlesng35/gitteams/pkg/logger"
	"github.com/charlesng35/gitteams/pkg/metrics"
)

// DefaultOrganizationCacheTTL is how long an owner's organization list is reused.
const DefaultOrganizationCacheTTL = 5 * time.Minute

const organizationCachePrefix = "github:orgs:"

// OrganizationLister lists the organizations visible to a GitHub token.
type OrganizationLister interface {
	ListOrganizations(ctx context.Context, token string) ([]github.Organization, error)
}

// OrganizationService serves the GitHub organizations an owner can create
// projects under.
type OrganizationService struct {
	credentials OwnerCredentials
	lister      OrganizationLister
	store       cache.Store
	ttl         time.Duration
	log         *zap.Logger
}

// NewOrganizationService constructs an OrganizationService. A nil store disables caching.
func NewOrganizationService(credentials OwnerCredentials, lister OrganizationLister, store cache.Store, ttl time.Duration) (*OrganizationService, error) {
	if credentials == nil {
		return nil, errors.New("organization service: owner credentials are required")
	}
	if lister == nil {
		return nil, errors.New("organization service: lister is required")
	}
	if ttl <= 0 {
		ttl = DefaultOrganizationCacheTTL
	}
	return &OrganizationService{
		credentials: credentials,
		lister:      lister,
		store:       store,
		ttl:         ttl,
		log:         logger.WithModule("organizations"),
	}, nil
}

// List returns the owner's organizations, from cache when a fresh copy exists.
func (s *OrganizationService) List(ctx context.Context, userID string) ([]github.Organization, error) {
	ctx = ensureContext(ctx)
	key := organizationCachePrefix + userID

	if orgs, ok := s.cached(ctx, key); ok {
		metrics.OrgCacheLookups.WithLabelValues("hit").Inc()
		return orgs, nil
	}
	metrics.OrgCacheLookups.WithLabelValues("miss").Inc()

	token, err := s.credentials.GitHubToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	orgs, err := s.lister.ListOrganizations(ctx, token)
	if err != nil {
		return nil, err
	}
	if orgs == nil {
		orgs = []github.Organization{}
	}

	s.remember(ctx, key, orgs)
	return orgs, nil
}

// Invalidate drops the cached list of an owner.
func (s *OrganizationService) Invalidate(ctx context.Context, userID string) error {
	if s.store == nil {
		return nil
	}
	return s.store.Delete(ensureContext(ctx), organizationCachePrefix+userID)
}

func (s *OrganizationService) cached(ctx context.Context, key string) ([]github.Organization, bool) {
	if s.store == nil {
		return nil, false
	}
	raw, ok, err := s.store.Get(ctx, key)
	if err != nil {
		s.log.Warn("organization cache read failed", zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var orgs []github.Organization
	if err := json.Unmarshal(raw, &orgs); err != nil {
		s.log.Warn("organization cache entry unreadable", zap.Error(err))
		return nil, false
	}
	return orgs, true
}

func (s *OrganizationService) remember(ctx context.Context, key string, orgs []github.Organization) {
	if s.store == nil {
		return
	}
	raw, err := json.Marshal(orgs)
	if err != nil {
		s.log.Warn("organization cache encode failed", zap.Error(err))
		return
	}
	if err := s.store.Set(ctx, key, raw, s.ttl); err != nil {
		s.log.Warn("organization cache write failed", zap.Error(err))
	}
}
