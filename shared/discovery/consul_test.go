package discovery

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/hashicorp/consul/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAgent struct {
	mu           sync.Mutex
	registered   []api.AgentServiceRegistration
	deregistered []string
	fail         bool
}

func (a *fakeAgent) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.fail {
		http.Error(w, "agent unavailable", http.StatusInternalServerError)
		return
	}

	switch {
	case r.Method == http.MethodPut && r.URL.Path == "/v1/agent/service/register":
		var reg api.AgentServiceRegistration
		if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		a.registered = append(a.registered, reg)
	case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/v1/agent/service/deregister/"):
		a.deregistered = append(a.deregistered, strings.TrimPrefix(r.URL.Path, "/v1/agent/service/deregister/"))
	default:
		http.NotFound(w, r)
	}
}

func newTestRegistry(t *testing.T, agent *fakeAgent) *Registry {
	t.Helper()
	srv := httptest.NewServer(agent)
	t.Cleanup(srv.Close)

	r, err := NewRegistry(strings.TrimPrefix(srv.URL, "http://"))
	require.NoError(t, err)
	return r
}

func TestRegistry_RegisterAndDeregister(t *testing.T) {
	t.Parallel()

	agent := &fakeAgent{}
	r := newTestRegistry(t, agent)

	err := r.Register(Registration{
		ID:         "marketplace-1",
		Name:       "marketplace",
		Address:    "10.0.0.5",
		Port:       8000,
		Tags:       []string{"http"},
		HealthGRPC: "10.0.0.5:8001",
	})
	require.NoError(t, err)

	require.Len(t, agent.registered, 1)
	got := agent.registered[0]
	assert.Equal(t, "marketplace-1", got.ID)
	assert.Equal(t, "marketplace", got.Name)
	assert.Equal(t, 8000, got.Port)
	require.NotNil(t, got.Check)
	assert.Equal(t, "10.0.0.5:8001", got.Check.GRPC)

	require.NoError(t, r.Deregister("marketplace-1"))
	assert.Equal(t, []string{"marketplace-1"}, agent.deregistered)
}

func TestRegistry_Register_AgentFailure(t *testing.T) {
	t.Parallel()

	agent := &fakeAgent{fail: true}
	r := newTestRegistry(t, agent)

	err := r.Register(Registration{ID: "x", Name: "marketplace"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "register service x")
}
