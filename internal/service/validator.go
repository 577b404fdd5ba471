package service

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"

	"github.com/hookline/hookline/internal/domain"
	"github.com/hookline/hookline/pkg/cache"
	"github.com/hookline/hookline/pkg/logger"
)

// HostResolver resolves hostnames to addresses. *net.Resolver satisfies
// it; tests inject their own.
type HostResolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// DefaultDestinationValidator is the stock destination check: the target
// must be a syntactically valid https URL whose host resolves in DNS.
// Outcomes are cached for a while because subscription creation and
// attempt creation both validate the same destinations repeatedly.
type DefaultDestinationValidator struct {
	resolver HostResolver
	cache    cache.Cache
	ttl      time.Duration
	enabled  bool
	logger   logger.Logger
}

// NewDestinationValidator creates the default destination validator.
// Pass net.DefaultResolver outside tests. A nil cache disables caching;
// enabled false turns the whole check off, which is only sensible in
// development.
func NewDestinationValidator(resolver HostResolver, outcomes cache.Cache, ttl time.Duration, enabled bool, logger logger.Logger) *DefaultDestinationValidator {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	return &DefaultDestinationValidator{
		resolver: resolver,
		cache:    outcomes,
		ttl:      ttl,
		enabled:  enabled,
		logger:   logger,
	}
}

var _ domain.DestinationValidator = (*DefaultDestinationValidator)(nil)

// ValidateTarget checks one destination URL. It returns nil when the
// destination is acceptable and *domain.ErrDestinationInvalid otherwise.
func (v *DefaultDestinationValidator) ValidateTarget(ctx context.Context, target string) error {
	if !v.enabled {
		return nil
	}

	cacheKey := "destination:" + target
	if v.cache != nil {
		if outcome, found := v.cache.Get(cacheKey); found {
			if err, ok := outcome.(error); ok {
				return err
			}
			return nil
		}
	}

	err := v.validate(ctx, target)
	if v.cache != nil {
		v.cache.Set(cacheKey, err, v.ttl)
	}
	return err
}

func (v *DefaultDestinationValidator) validate(ctx context.Context, target string) error {
	if !govalidator.IsRequestURL(target) {
		return &domain.ErrDestinationInvalid{URL: target, Reason: "not a valid request URL"}
	}

	parsed, err := url.Parse(target)
	if err != nil {
		return &domain.ErrDestinationInvalid{URL: target, Reason: err.Error()}
	}
	if !strings.EqualFold(parsed.Scheme, "https") {
		return &domain.ErrDestinationInvalid{URL: target, Reason: "scheme must be https"}
	}
	host := parsed.Hostname()
	if host == "" {
		return &domain.ErrDestinationInvalid{URL: target, Reason: "missing host"}
	}

	if _, err := v.resolver.LookupHost(ctx, host); err != nil {
		v.logger.WithField("host", host).Debug(fmt.Sprintf("destination host did not resolve: %v", err))
		return &domain.ErrDestinationInvalid{URL: target, Reason: fmt.Sprintf("host did not resolve: %v", err)}
	}
	return nil
}
