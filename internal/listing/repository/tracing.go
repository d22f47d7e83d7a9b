package repository

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/marketplace/internal/listing/domain"
)

var tracer = otel.Tracer("listing-repository")

// TracedListingRepository wraps a ListingRepository with OpenTelemetry spans.
type TracedListingRepository struct {
	inner domain.ListingRepository
}

func NewTracedListingRepository(inner domain.ListingRepository) *TracedListingRepository {
	return &TracedListingRepository{inner: inner}
}

func (r *TracedListingRepository) Create(ctx context.Context, listing *domain.Listing) error {
	ctx, span := tracer.Start(ctx, "repository.Create",
		trace.WithAttributes(
			attribute.String("listing.title", listing.Title),
			attribute.String("listing.category", string(listing.Category)),
			attribute.String("listing.visibility", string(listing.Visibility)),
			attribute.Int64("listing.price_cents", listing.PriceCents),
		),
	)
	defer span.End()

	err := r.inner.Create(ctx, listing)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetAttributes(attribute.String("listing.id", listing.ID))
	return nil
}

func (r *TracedListingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	ctx, span := tracer.Start(ctx, "repository.FindByID",
		trace.WithAttributes(attribute.String("listing.id", id)),
	)
	defer span.End()

	listing, err := r.inner.FindByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String("listing.status", string(listing.Status)),
		attribute.String("listing.visibility", string(listing.Visibility)),
	)
	return listing, nil
}

func (r *TracedListingRepository) FindByShareLink(ctx context.Context, token string) (*domain.Listing, error) {
	// The token itself is never recorded on the span.
	ctx, span := tracer.Start(ctx, "repository.FindByShareLink")
	defer span.End()

	listing, err := r.inner.FindByShareLink(ctx, token)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.String("listing.id", listing.ID))
	return listing, nil
}

func (r *TracedListingRepository) FindAll(ctx context.Context, filter domain.ListingFilter) ([]domain.Listing, error) {
	ctx, span := tracer.Start(ctx, "repository.FindAll",
		trace.WithAttributes(
			attribute.String("query.text", filter.Query),
			attribute.String("query.category", string(filter.Category)),
			attribute.String("query.visibility", string(filter.Visibility)),
		),
	)
	defer span.End()

	listings, err := r.inner.FindAll(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("result.count", len(listings)))
	return listings, nil
}

func (r *TracedListingRepository) FindByStatus(ctx context.Context, status domain.ListingStatus) ([]domain.Listing, error) {
	ctx, span := tracer.Start(ctx, "repository.FindByStatus",
		trace.WithAttributes(attribute.String("query.status", string(status))),
	)
	defer span.End()

	listings, err := r.inner.FindByStatus(ctx, status)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("result.count", len(listings)))
	return listings, nil
}

func (r *TracedListingRepository) Update(ctx context.Context, id string, patch domain.ListingPatch) (*domain.Listing, error) {
	ctx, span := tracer.Start(ctx, "repository.Update",
		trace.WithAttributes(attribute.String("listing.id", id)),
	)
	defer span.End()

	listing, err := r.inner.Update(ctx, id, patch)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return listing, nil
}

func (r *TracedListingRepository) Delete(ctx context.Context, id string) (bool, error) {
	ctx, span := tracer.Start(ctx, "repository.Delete",
		trace.WithAttributes(attribute.String("listing.id", id)),
	)
	defer span.End()

	deleted, err := r.inner.Delete(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}

	span.SetAttributes(attribute.Bool("listing.deleted", deleted))
	return deleted, nil
}

func (r *TracedListingRepository) IncrementViews(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "repository.IncrementViews",
		trace.WithAttributes(attribute.String("listing.id", id)),
	)
	defer span.End()

	err := r.inner.IncrementViews(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (r *TracedListingRepository) TransitionStatus(ctx context.Context, id string, from, to domain.ListingStatus) (bool, error) {
	ctx, span := tracer.Start(ctx, "repository.TransitionStatus",
		trace.WithAttributes(
			attribute.String("listing.id", id),
			attribute.String("status.from", string(from)),
			attribute.String("status.to", string(to)),
		),
	)
	defer span.End()

	ok, err := r.inner.TransitionStatus(ctx, id, from, to)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}

	span.SetAttributes(attribute.Bool("status.transitioned", ok))
	return ok, nil
}

func (r *TracedListingRepository) SetShareLink(ctx context.Context, id, token string) (bool, error) {
	ctx, span := tracer.Start(ctx, "repository.SetShareLink",
		trace.WithAttributes(attribute.String("listing.id", id)),
	)
	defer span.End()

	ok, err := r.inner.SetShareLink(ctx, id, token)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}

	span.SetAttributes(attribute.Bool("share_link.issued", ok))
	return ok, nil
}
