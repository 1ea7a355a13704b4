package clients

import (
	"context"

	"github.com/grovetools/ftrack/pkg/models"
	"github.com/grovetools/ftrack/state"
	"github.com/sirupsen/logrus"
)

// SortKey is the durable key holding the chosen client sort.
const SortKey = "clientsSort"

// LoadSort returns the persisted sort, or the default when nothing valid is
// stored. The label is always taken from the menu, not from storage.
func LoadSort(ctx context.Context, durable state.Store, logger *logrus.Entry) models.SortOption {
	var saved models.SortOption
	ok, err := state.GetJSON(ctx, durable, SortKey, &saved)
	if err != nil {
		logger.WithError(err).Debug("Ignoring unreadable sort preference")
		return models.DefaultClientSort()
	}
	if !ok {
		return models.DefaultClientSort()
	}
	opt, found := models.FindClientSort(saved.Sort, saved.Order)
	if !found {
		logger.WithField("sort", saved.Sort+":"+saved.Order).Debug("Ignoring unknown sort preference")
		return models.DefaultClientSort()
	}
	return opt
}

// SaveSort persists opt as {sort, order, label}.
func SaveSort(ctx context.Context, durable state.Store, opt models.SortOption) error {
	return state.SetJSON(ctx, durable, SortKey, opt)
}
