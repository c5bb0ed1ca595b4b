package discovery

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServiceRegistration(t *testing.T) {
	reg := NewServiceRegistration(ServiceConfig{Name: "vivah-auth-service", Address: "127.0.0.1", Port: 5000})

	assert.Equal(t, "vivah-auth-service-127.0.0.1:5000", reg.ID)
	assert.Equal(t, 5000, reg.Port)
	require.NotNil(t, reg.Check)
	assert.Equal(t, "http://127.0.0.1:5000/health", reg.Check.HTTP)
}

type fakeAgent struct {
	mu       sync.Mutex
	requests []string
	body     map[string]any
}

func (f *fakeAgent) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	if strings.HasSuffix(r.URL.Path, "/register") {
		_ = json.NewDecoder(r.Body).Decode(&f.body)
	}
	w.WriteHeader(http.StatusOK)
}

func TestServiceRegistrar_RegisterAndDeregister(t *testing.T) {
	agent := &fakeAgent{}
	srv := httptest.NewServer(agent)
	t.Cleanup(srv.Close)

	logger := zerolog.Nop()
	registrar, err := NewServiceRegistrar(ServiceConfig{
		ConsulAddr: strings.TrimPrefix(srv.URL, "http://"),
		Name:       "vivah-auth-service",
		Address:    "10.0.0.5",
		Port:       5000,
	}, &logger)
	require.NoError(t, err)

	require.NoError(t, registrar.Register())
	require.NoError(t, registrar.Deregister())

	agent.mu.Lock()
	defer agent.mu.Unlock()
	assert.Equal(t, []string{
		"PUT /v1/agent/service/register",
		"PUT /v1/agent/service/deregister/" + registrar.ServiceID(),
	}, agent.requests)
	assert.Equal(t, "vivah-auth-service", agent.body["Name"])
}
