package access

import (
	"context"

	"github.com/tair/marketplace/internal/listing/domain"
	"github.com/tair/marketplace/pkg/logger"
)

// Requester describes who is asking for a listing. Zero fields mean the
// corresponding credential is absent; a fully zero Requester is an
// anonymous visitor.
type Requester struct {
	UserID     string
	Email      string
	ShareToken string
}

// Anonymous reports whether the requester carries no identity.
func (r Requester) Anonymous() bool {
	return r.UserID == "" && r.Email == ""
}

// SocialGraph is the external collaborator consulted for the
// friends-of-the-owner predicate on private listings.
type SocialGraph interface {
	Connected(ctx context.Context, ownerID, userID string) (bool, error)
}

// Decision is the outcome of a resolution. Reason is for internal
// logging only and must never reach an external caller: denied
// resolutions surface as NotFound so private listing IDs are
// indistinguishable from nonexistent ones.
type Decision struct {
	Granted bool
	Reason  string
}

func grant(reason string) Decision {
	return Decision{Granted: true, Reason: reason}
}

func deny(reason string) Decision {
	return Decision{Granted: false, Reason: reason}
}

// Resolver is the single chokepoint deciding whether a requester may
// view or purchase a listing. Every content-returning read and every
// purchase-intent creation must pass through it.
type Resolver struct {
	social SocialGraph
}

func NewResolver(social SocialGraph) *Resolver {
	return &Resolver{social: social}
}

// Resolve evaluates the access policy in order; the first match wins.
// The result is deterministic for unchanged inputs.
func (r *Resolver) Resolve(ctx context.Context, listing *domain.Listing, req Requester) Decision {
	if listing == nil {
		return deny("no listing")
	}

	if req.UserID != "" && req.UserID == listing.OwnerID {
		return grant("owner")
	}

	switch listing.Visibility {
	case domain.VisibilityPublic:
		return grant("public listing")

	case domain.VisibilityShared:
		if listing.ShareTokenMatches(req.ShareToken) {
			return grant("share token")
		}
		return deny("shared listing without valid token")

	case domain.VisibilityPrivate:
		if listing.IsInvited(req.Email) {
			return grant("invited email")
		}
		if listing.AllowFacebookConnections && req.UserID != "" && r.social != nil {
			connected, err := r.social.Connected(ctx, listing.OwnerID, req.UserID)
			if err != nil {
				// Collaborator failure degrades to a denial of this
				// predicate, never an error to the caller.
				logger.Warn(ctx).Err(err).
					Str("listing_id", listing.ID).
					Str("user_id", req.UserID).
					Msg("Social graph check failed, treating as not connected")
			} else if connected {
				return grant("social graph connection")
			}
		}
		return deny("private listing, requester not on access list")
	}

	return deny("unknown visibility")
}

// CanView is Resolve reduced to its boolean, logging denials at debug.
func (r *Resolver) CanView(ctx context.Context, listing *domain.Listing, req Requester) bool {
	decision := r.Resolve(ctx, listing, req)
	if !decision.Granted && listing != nil {
		logger.Debug(ctx).
			Str("listing_id", listing.ID).
			Str("reason", decision.Reason).
			Bool("anonymous", req.Anonymous()).
			Msg("Listing access denied")
	}
	return decision.Granted
}
