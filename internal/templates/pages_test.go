package templates

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencaselaw/cite/internal/model"
)

func TestHomeShowsCaseAndReporterCounts(t *testing.T) {
	entries := []JurisdictionReporters{
		{
			Jurisdiction: model.Jurisdiction{ID: 1, Name: "ill", NameLong: "Illinois"},
			Reporters: []model.Reporter{
				{ShortName: "Ill. 2d", ShortNameSlug: "ill-2d", FullName: "Illinois Reports, Second Series"},
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Home(entries, 1842, 7).Render(context.Background(), &buf))
	body := buf.String()

	assert.Contains(t, body, "Browse 1842 cases across 7 reporter series")
	assert.Contains(t, body, "Illinois")
	assert.Contains(t, body, `<a href="/ill-2d/">`)
}

func TestSeriesListsVolumes(t *testing.T) {
	reporter := &model.Reporter{ShortName: "Ill. 2d", ShortNameSlug: "ill-2d", FullName: "Illinois Reports, Second Series"}
	volumes := []model.Volume{
		{VolumeNumber: "1", VolumeNumberSlug: "1"},
		{VolumeNumber: "2", VolumeNumberSlug: "2"},
	}

	var buf bytes.Buffer
	require.NoError(t, Series(reporter, volumes).Render(context.Background(), &buf))
	body := buf.String()

	assert.Contains(t, body, `<a href="/ill-2d/1/">Volume 1</a>`)
	assert.Contains(t, body, `<a href="/ill-2d/2/">Volume 2</a>`)
}
