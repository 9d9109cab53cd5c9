package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/rig-panel/internal/api"
)

func TestNewClient_SendsCookie(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "session=abc", r.Header.Get("Cookie"))
		assert.Equal(t, api.PathLogSensorData, r.URL.Path)
		json.NewEncoder(w).Encode(api.CommandResponse{Success: true})
	}))
	defer srv.Close()

	require.NoError(t, newClient(srv.URL, "session=abc").LogSensorData(context.Background()))
}
