package env_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stash/internal/adapters/env"
	"go.trai.ch/stash/internal/core/domain"
)

var buildTime = time.Date(2020, time.November, 10, 8, 30, 0, 0, time.UTC)

// unsetAll clears every key variable for the duration of the test.
func unsetAll(t *testing.T) {
	t.Helper()
	for _, f := range domain.AllFields {
		name := f.EnvName()
		old, ok := os.LookupEnv(name)
		require.NoError(t, os.Unsetenv(name))
		t.Cleanup(func() {
			if ok {
				_ = os.Setenv(name, old)
			}
		})
	}
}

func TestSource_AllFromEnvironment(t *testing.T) {
	unsetAll(t)
	t.Setenv("CACHE_VERSION", "20201102")
	t.Setenv("CURRENT_WEEK", "W12")
	t.Setenv("DIALS_DATA_VERSION", "2.4")
	t.Setenv("TODAY_ISO", "20201110")
	t.Setenv("DIALS_DATA_VERSION_FULL", "2.4.3")

	src := env.NewSource(clockwork.NewFakeClockAt(buildTime))
	inputs, missing, err := src.Inputs(context.Background())
	require.NoError(t, err)

	assert.Empty(t, missing)
	assert.Equal(t, domain.KeyInputs{
		CacheVersion:       "20201102",
		CurrentWeek:        "W12",
		DatasetVersion:     "2.4",
		TodayISO:           "20201110",
		DatasetVersionFull: "2.4.3",
	}, inputs)
}

func TestSource_DerivesDatesFromClock(t *testing.T) {
	unsetAll(t)

	src := env.NewSource(clockwork.NewFakeClockAt(buildTime))
	inputs, missing, err := src.Inputs(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "W46", inputs.CurrentWeek)
	assert.Equal(t, "20201110", inputs.TodayISO)
	assert.Equal(t, []domain.Field{
		domain.FieldCacheVersion,
		domain.FieldDatasetVersion,
		domain.FieldDatasetVersionFull,
	}, missing)
}

func TestSource_EmptyValuesPassThrough(t *testing.T) {
	unsetAll(t)
	t.Setenv("DIALS_DATA_VERSION", "")
	t.Setenv("TODAY_ISO", "")

	src := env.NewSource(clockwork.NewFakeClockAt(buildTime))
	inputs, missing, err := src.Inputs(context.Background())
	require.NoError(t, err)

	assert.Empty(t, inputs.DatasetVersion)
	assert.Empty(t, inputs.TodayISO)
	assert.NotContains(t, missing, domain.FieldDatasetVersion)
}
