package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhishekK50/wardenxt/internal/errors"
	"github.com/abhishekK50/wardenxt/internal/service"
)

func TestExecuteSendsBody(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/runbooks/INC%201/execute", r.URL.EscapedPath())
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "r1", "success": true, "dry_run": true, "step_number": 2}`))
	}))
	defer srv.Close()

	live := false
	res, err := New(srv.URL+"/").Execute(context.Background(), "INC 1", ExecuteRequest{
		StepNumber: 2, DryRun: &live, ConfirmationText: "EXECUTE",
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 2, res.StepNumber)
	assert.Equal(t, false, got["dry_run"])
	assert.Equal(t, "EXECUTE", got["confirmation_text"])
}

func TestServerErrorsKeepTheirCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": {"code": "SAFETY-002", "kind": "approval_required",
			"message": "high-risk command requires approval: type 'EXECUTE' to confirm",
			"suggestions": ["Re-run with confirmation"]}}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Execute(context.Background(), "INC-1", ExecuteRequest{StepNumber: 1})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeApprovalRequired, errors.CodeOf(err))
	assert.Equal(t, errors.KindApprovalRequired, errors.KindOf(err))
	we, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, []string{"Re-run with confirmation"}, we.Suggestions)
}

func TestNonJSONErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL).List(context.Background())
	assert.Equal(t, errors.ErrCodeInternal, errors.CodeOf(err))
	assert.Contains(t, err.Error(), "status 502")
}

func TestUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).Incidents(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wardenxt serve")
}

func TestGenerateAndList(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/runbooks/INC-1/generate", func(w http.ResponseWriter, r *http.Request) {
		var req service.GenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "diagnostic", req.FocusArea)
		_, _ = w.Write([]byte(`{"incident_id": "INC-1", "total_steps": 2, "steps": []}`))
	})
	mux.HandleFunc("/api/v1/runbooks", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"cached_count": 1, "cache_ttl_minutes": 60, "runbooks": [{"incident_id": "INC-1"}]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL)
	rb, err := c.Generate(context.Background(), "INC-1", service.GenerateRequest{FocusArea: "diagnostic"})
	require.NoError(t, err)
	assert.Equal(t, 2, rb.TotalSteps)

	listing, err := c.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 60, listing.CacheTTLMinutes)
	assert.Equal(t, "INC-1", listing.Runbooks[0].IncidentID)
}
