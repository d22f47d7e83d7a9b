//go:build wireinject
// +build wireinject

package listing

import (
	"github.com/google/wire"
	"gorm.io/gorm"

	"github.com/tair/marketplace/internal/listing/access"
	"github.com/tair/marketplace/internal/listing/delivery/http"
	"github.com/tair/marketplace/internal/listing/domain"
	"github.com/tair/marketplace/internal/listing/repository"
	"github.com/tair/marketplace/internal/listing/usecase/command"
	"github.com/tair/marketplace/internal/listing/usecase/query"
)

// ProvideListingRepository provides the listing repository
func ProvideListingRepository(db *gorm.DB) domain.ListingRepository {
	return repository.NewTracedListingRepository(repository.NewGormListingRepository(db))
}

// ProvideActivityRepository provides the activity ledger repository
func ProvideActivityRepository(db *gorm.DB) domain.ActivityRepository {
	return repository.NewGormActivityRepository(db)
}

// ProvideResolver provides the access resolver
func ProvideResolver(social access.SocialGraph) *access.Resolver {
	return access.NewResolver(social)
}

// Command handler providers
func ProvideCreateListingHandler(listings domain.ListingRepository, activities domain.ActivityRepository) *command.CreateListingHandler {
	return command.NewCreateListingHandler(listings, activities)
}

func ProvideUpdateListingHandler(listings domain.ListingRepository) *command.UpdateListingHandler {
	return command.NewUpdateListingHandler(listings)
}

func ProvideDeleteListingHandler(listings domain.ListingRepository) *command.DeleteListingHandler {
	return command.NewDeleteListingHandler(listings)
}

func ProvideMarkSoldHandler(listings domain.ListingRepository, activities domain.ActivityRepository) *command.MarkSoldHandler {
	return command.NewMarkSoldHandler(listings, activities)
}

func ProvideArchiveListingHandler(listings domain.ListingRepository) *command.ArchiveListingHandler {
	return command.NewArchiveListingHandler(listings)
}

func ProvideRecordViewHandler(listings domain.ListingRepository) *command.RecordViewHandler {
	return command.NewRecordViewHandler(listings)
}

func ProvideGenerateShareLinkHandler(listings domain.ListingRepository, activities domain.ActivityRepository) *command.GenerateShareLinkHandler {
	return command.NewGenerateShareLinkHandler(listings, activities)
}

func ProvideAppendActivityHandler(activities domain.ActivityRepository) *command.AppendActivityHandler {
	return command.NewAppendActivityHandler(activities)
}

// Query handler providers
func ProvideGetListingHandler(listings domain.ListingRepository) *query.GetListingHandler {
	return query.NewGetListingHandler(listings)
}

func ProvideGetByShareLinkHandler(listings domain.ListingRepository) *query.GetByShareLinkHandler {
	return query.NewGetByShareLinkHandler(listings)
}

func ProvideListListingsHandler(listings domain.ListingRepository) *query.ListListingsHandler {
	return query.NewListListingsHandler(listings)
}

func ProvideListByStatusHandler(listings domain.ListingRepository) *query.ListByStatusHandler {
	return query.NewListByStatusHandler(listings)
}

func ProvideListActivitiesHandler(activities domain.ActivityRepository) *query.ListActivitiesHandler {
	return query.NewListActivitiesHandler(activities)
}

func ProvideGetStatsHandler(listings domain.ListingRepository) *query.GetStatsHandler {
	return query.NewGetStatsHandler(listings)
}

// Wire sets
var RepositorySet = wire.NewSet(
	ProvideListingRepository,
	ProvideActivityRepository,
)

var CommandHandlerSet = wire.NewSet(
	ProvideCreateListingHandler,
	ProvideUpdateListingHandler,
	ProvideDeleteListingHandler,
	ProvideMarkSoldHandler,
	ProvideArchiveListingHandler,
	ProvideRecordViewHandler,
	ProvideGenerateShareLinkHandler,
	ProvideAppendActivityHandler,
)

var QueryHandlerSet = wire.NewSet(
	ProvideGetListingHandler,
	ProvideGetByShareLinkHandler,
	ProvideListListingsHandler,
	ProvideListByStatusHandler,
	ProvideListActivitiesHandler,
	ProvideGetStatsHandler,
)

var AllHandlersSet = wire.NewSet(
	RepositorySet,
	CommandHandlerSet,
	QueryHandlerSet,
	ProvideResolver,
)

// InitializeHTTPHandler initializes the HTTP handler with all dependencies
func InitializeHTTPHandler(db *gorm.DB, social access.SocialGraph) (*http.ListingHandler, error) {
	wire.Build(
		AllHandlersSet,
		http.NewListingHandlerWithDI,
	)
	return nil, nil
}
