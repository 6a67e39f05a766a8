// Package env reads cache key inputs from the pipeline environment.
package env

import (
	"context"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/viper"
	"go.trai.ch/stash/internal/core/domain"
	"go.trai.ch/stash/internal/core/ports"
)

var _ ports.InputSource = (*Source)(nil)

// Source implements ports.InputSource on top of environment variables.
// CURRENT_WEEK and TODAY_ISO fall back to the clock when unset.
type Source struct {
	v     *viper.Viper
	clock clockwork.Clock
}

// NewSource creates a Source bound to the standard variable names.
// A variable that is set but empty counts as set and is passed through.
func NewSource(clock clockwork.Clock) *Source {
	v := viper.New()
	v.AllowEmptyEnv(true)
	for _, f := range domain.AllFields {
		_ = v.BindEnv(viperKey(f), f.EnvName())
	}
	return &Source{v: v, clock: clock}
}

// Inputs implements ports.InputSource.
func (s *Source) Inputs(_ context.Context) (domain.KeyInputs, []domain.Field, error) {
	var (
		inputs  domain.KeyInputs
		missing []domain.Field
	)
	now := s.clock.Now().UTC()

	for _, f := range domain.AllFields {
		if s.v.IsSet(viperKey(f)) {
			inputs = inputs.Set(f, s.v.GetString(viperKey(f)))
			continue
		}

		switch f {
		case domain.FieldCurrentWeek:
			inputs = inputs.Set(f, domain.WeekOf(now))
		case domain.FieldTodayISO:
			inputs = inputs.Set(f, domain.DateOf(now))
		default:
			missing = append(missing, f)
		}
	}

	return inputs, missing, nil
}

func viperKey(f domain.Field) string {
	return strings.ToLower(f.EnvName())
}
