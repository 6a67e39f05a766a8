package shell_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stash/internal/adapters/shell"
	"go.trai.ch/stash/internal/core/domain"
	"go.trai.ch/stash/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func datasetConfig(script string) domain.DatasetConfig {
	return domain.DatasetConfig{
		Command:       []string{"sh", "-c", script},
		FullKey:       "version.full",
		MajorMinorKey: "version.major_minor",
	}
}

func TestProbe_ReadsBothVersions(t *testing.T) {
	ctrl := gomock.NewController(t)
	probe := shell.NewProbe(mocks.NewMockLogger(ctrl))

	mm, full, err := probe.Probe(context.Background(), datasetConfig(
		"echo 'dials_data 2.4.3'; echo 'version.full=2.4.3'; echo 'version.major_minor=2.4'",
	))
	require.NoError(t, err)

	assert.Equal(t, "2.4", mm)
	assert.Equal(t, "2.4.3", full)
}

func TestProbe_StderrGoesToLogger(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Warn("deprecated option").Times(1)
	probe := shell.NewProbe(log)

	_, full, err := probe.Probe(context.Background(), datasetConfig(
		"echo 'deprecated option' >&2; echo 'version.full=2.5.0'",
	))
	require.NoError(t, err)

	assert.Equal(t, "2.5.0", full)
}

func TestProbe_CommandFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	probe := shell.NewProbe(mocks.NewMockLogger(ctrl))

	_, _, err := probe.Probe(context.Background(), datasetConfig("exit 3"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "dataset command failed")
}

func TestProbe_NoCommand(t *testing.T) {
	ctrl := gomock.NewController(t)
	probe := shell.NewProbe(mocks.NewMockLogger(ctrl))

	_, _, err := probe.Probe(context.Background(), domain.DatasetConfig{})

	assert.True(t, errors.Is(err, domain.ErrDatasetVersionNotFound))
}

func TestParseVersions(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		wantMM   string
		wantFull string
		wantErr  bool
	}{
		{"both keys", "version.full=2.4.3\nversion.major_minor=2.4\n", "2.4", "2.4.3", false},
		{"derive major minor", "version.full = 3.1.0.dev2\n", "3.1", "3.1.0.dev2", false},
		{"single component", "version.full=7\n", "7", "7", false},
		{"missing full", "version.major_minor=2.4\n", "", "", true},
		{"empty output", "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mm, full, err := shell.ParseVersions(tt.output, "version.major_minor", "version.full")
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, domain.ErrDatasetVersionNotFound))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMM, mm)
			assert.Equal(t, tt.wantFull, full)
		})
	}
}
