package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/modelhub-backend/internal/data/aggregates"
	"github.com/yungbote/modelhub-backend/internal/data/repos"
	domainagg "github.com/yungbote/modelhub-backend/internal/domain/aggregates"
	"github.com/yungbote/modelhub-backend/internal/platform/logger"
)

type Aggregates struct {
	Registry     domainagg.ModelRegistryAggregate
	Contribution domainagg.ContributionAggregate
	Experimental domainagg.ExperimentalModelAggregate
	Notification domainagg.NotificationAggregate
	User         domainagg.UserAggregate
}

func wireAggregates(db *gorm.DB, log *logger.Logger, hooks aggregates.Hooks, r repos.Set) Aggregates {
	log.Info("Wiring aggregates...")
	base := aggregates.BaseDeps{DB: db, Log: log, Hooks: hooks}
	out := Aggregates{
		Registry: aggregates.NewModelRegistryAggregate(aggregates.ModelRegistryAggregateDeps{
			Base:          base,
			Models:        r.Models,
			Users:         r.Users,
			Contributions: r.Contributions,
			Links:         r.Links,
			Notifications: r.Notifications,
			Ratings:       r.Ratings,
			Comments:      r.Comments,
		}),
		Contribution: aggregates.NewContributionAggregate(aggregates.ContributionAggregateDeps{
			Base:          base,
			Contributions: r.Contributions,
			Links:         r.Links,
			Models:        r.Models,
			Users:         r.Users,
			Notifications: r.Notifications,
		}),
		Experimental: aggregates.NewExperimentalModelAggregate(aggregates.ExperimentalModelAggregateDeps{
			Base:          base,
			Models:        r.Models,
			Contributions: r.Contributions,
			Links:         r.Links,
			Users:         r.Users,
			Notifications: r.Notifications,
		}),
		Notification: aggregates.NewNotificationAggregate(aggregates.NotificationAggregateDeps{
			Base:          base,
			Users:         r.Users,
			Notifications: r.Notifications,
		}),
		User: aggregates.NewUserAggregate(aggregates.UserAggregateDeps{
			Base:          base,
			Users:         r.Users,
			Roles:         r.Roles,
			Contributions: r.Contributions,
			Links:         r.Links,
			Notifications: r.Notifications,
			Ratings:       r.Ratings,
			Comments:      r.Comments,
		}),
	}
	for _, agg := range out.list() {
		c := agg.Contract()
		log.Debug("Aggregate wired", "aggregate", c.Name, "tables", c.Tables)
	}
	return out
}

func (a Aggregates) list() []domainagg.Aggregate {
	return []domainagg.Aggregate{a.Registry, a.Contribution, a.Experimental, a.Notification, a.User}
}
