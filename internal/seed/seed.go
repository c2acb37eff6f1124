package seed

import (
	"context"

	"github.com/rs/zerolog"

	appRepos "github.com/tutorhub/backoffice/internal/app/repositories"
)

// CreateDefaultData gives every organization with students an explicit capacity setting,
// so administrators see and edit a stored value rather than the built-in default.
func CreateDefaultData(ctx context.Context, settings *appRepos.SettingRepository, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating default organization settings...")

	created, err := settings.InsertMissingDefaults(ctx)
	if err != nil {
		lgr.Error().Err(err).Msg("Error creating default organization settings")
		return err
	}

	lgr.Info().Int64("created", created).Msg("Default organization settings ensured")
	return nil
}
