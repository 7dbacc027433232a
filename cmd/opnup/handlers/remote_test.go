package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opnup/opnup/internal/platform/api"
)

// newFirmwareServer fakes the firmware endpoints and records triggered
// operation paths plus the last request body.
func newFirmwareServer(t *testing.T) (*httptest.Server, *[]string, *string) {
	t.Helper()
	var (
		triggered []string
		lastBody  string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/core/firmware/update", "/api/core/firmware/upgrade", "/api/core/firmware/reboot":
			body, _ := io.ReadAll(r.Body)
			lastBody = string(body)
			triggered = append(triggered, r.URL.Path)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		case "/api/core/firmware/upgradestatus":
			_, _ = w.Write([]byte(`{"status":"done","log":"done here"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	t.Setenv("OPNSENSE_URL", srv.URL)
	t.Setenv("OPNSENSE_API_KEY", "key")
	t.Setenv("OPNSENSE_API_SECRET", "secret")
	t.Setenv("OPNSENSE_READ_ONLY", "false")
	return srv, &triggered, &lastBody
}

func TestRemoteUpdateTriggersAndWaits(t *testing.T) {
	_, triggered, _ := newFirmwareServer(t)
	cfgPath, _ := writeTestConfig(t)

	require.NoError(t, RemoteUpdate(context.Background(), cfgPath, true, true))
	assert.Equal(t, []string{"/api/core/firmware/update"}, *triggered)
}

func TestRemoteUpgradeSendsVersion(t *testing.T) {
	_, triggered, lastBody := newFirmwareServer(t)
	cfgPath, _ := writeTestConfig(t)

	require.NoError(t, RemoteUpgrade(context.Background(), cfgPath, "26.1", false, true))
	assert.Equal(t, []string{"/api/core/firmware/upgrade"}, *triggered)
	assert.Contains(t, *lastBody, `"upgrade":"26.1"`)
}

func TestRemoteRebootTriggers(t *testing.T) {
	_, triggered, _ := newFirmwareServer(t)
	cfgPath, _ := writeTestConfig(t)

	require.NoError(t, RemoteReboot(context.Background(), cfgPath, true))
	assert.Equal(t, []string{"/api/core/firmware/reboot"}, *triggered)
}

func TestRemoteWatchFollowsToCompletion(t *testing.T) {
	newFirmwareServer(t)
	cfgPath, _ := writeTestConfig(t)

	require.NoError(t, RemoteWatch(context.Background(), cfgPath))
}

func TestRemoteUpdateReadOnlyRefused(t *testing.T) {
	newFirmwareServer(t)
	t.Setenv("OPNSENSE_READ_ONLY", "true")
	cfgPath, _ := writeTestConfig(t)

	err := RemoteUpdate(context.Background(), cfgPath, false, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrReadOnly)
}

func TestRemoteUpdateRequiresAPI(t *testing.T) {
	t.Setenv("OPNSENSE_URL", "")
	cfgPath, _ := writeTestConfig(t)

	err := RemoteUpdate(context.Background(), cfgPath, false, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires the REST API")
}
