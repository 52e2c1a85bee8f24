// Package db provides the selection of the relational driver backing the
// conversation store.
package db

import (
	"github.com/pkg/errors"

	"github.com/phantomdelux3/ai-product-reccomendation/internal/profile"
	"github.com/phantomdelux3/ai-product-reccomendation/store"
	"github.com/phantomdelux3/ai-product-reccomendation/store/db/postgres"
	"github.com/phantomdelux3/ai-product-reccomendation/store/db/sqlite"
)

// NewDBDriver creates a new database driver based on the profile.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	case "postgres":
		driver, err = postgres.NewDB(profile)
	default:
		return nil, errors.Errorf("unknown db driver: %s", profile.Driver)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}

	return driver, nil
}
