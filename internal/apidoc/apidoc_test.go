package apidoc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	doc, err := Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "WardenXT Runbook API", doc.Info.Title)
	assert.NotNil(t, doc.Paths.Find("/api/v1/runbooks/{incident_id}/execute"))
}

func TestDrift(t *testing.T) {
	doc, err := Load(context.Background())
	require.NoError(t, err)

	findings := Drift(doc, []Route{
		{Method: "GET", Path: "/api/v1/runbooks/{incidentID}/"},
		{Method: "PUT", Path: "/api/v1/runbooks/{incidentID}"},
		{Method: "GET", Path: "/api/v1/secrets"},
		{Method: "HEAD", Path: "/nowhere"},
	})

	byCode := map[string][]string{}
	for _, f := range findings {
		byCode[f.Code] = append(byCode[f.Code], f.Route.String())
	}
	assert.Equal(t, []string{"GET /api/v1/secrets"}, byCode["MISSING_API_PATH"])
	assert.Equal(t, []string{"PUT /api/v1/runbooks/{incidentID}"}, byCode["MISSING_API_METHOD"])
	assert.Contains(t, byCode["UNSERVED_OPERATION"], "DELETE /api/v1/runbooks/{incident_id}")
	assert.NotContains(t, byCode["UNSERVED_OPERATION"], "GET /api/v1/runbooks/{incident_id}")
}

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "/a/{}/b", normalizePath("/a/{incidentID}/b/"))
	assert.Equal(t, "/", normalizePath("/"))
}
