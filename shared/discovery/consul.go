package discovery

import (
	"fmt"
	"net"
	"strconv"

	"github.com/hashicorp/consul/api"
	"github.com/rs/zerolog"
)

// ServiceConfig describes how the service announces itself to consul.
type ServiceConfig struct {
	ConsulAddr string
	Name       string
	Address    string
	Port       int
	HealthPath string
	Tags       []string
}

// ServiceRegistrar registers and deregisters one service instance with a consul agent.
type ServiceRegistrar struct {
	agent        *api.Agent
	registration *api.AgentServiceRegistration
	logger       *zerolog.Logger
}

// NewServiceRegistrar creates a registrar talking to the agent at cfg.ConsulAddr.
func NewServiceRegistrar(cfg ServiceConfig, logger *zerolog.Logger) (*ServiceRegistrar, error) {
	consulCfg := api.DefaultConfig()
	consulCfg.Address = cfg.ConsulAddr

	client, err := api.NewClient(consulCfg)
	if err != nil {
		return nil, fmt.Errorf("create consul client: %w", err)
	}

	return &ServiceRegistrar{
		agent:        client.Agent(),
		registration: NewServiceRegistration(cfg),
		logger:       logger,
	}, nil
}

// NewServiceRegistration builds the agent registration with an HTTP health check.
func NewServiceRegistration(cfg ServiceConfig) *api.AgentServiceRegistration {
	healthPath := cfg.HealthPath
	if healthPath == "" {
		healthPath = "/health"
	}
	hostPort := net.JoinHostPort(cfg.Address, strconv.Itoa(cfg.Port))

	return &api.AgentServiceRegistration{
		ID:      cfg.Name + "-" + hostPort,
		Name:    cfg.Name,
		Address: cfg.Address,
		Port:    cfg.Port,
		Tags:    cfg.Tags,
		Check: &api.AgentServiceCheck{
			HTTP:                           "http://" + hostPort + healthPath,
			Interval:                       "10s",
			Timeout:                        "2s",
			DeregisterCriticalServiceAfter: "1m",
		},
	}
}

// ServiceID returns the id the instance is registered under.
func (r *ServiceRegistrar) ServiceID() string {
	return r.registration.ID
}

func (r *ServiceRegistrar) Register() error {
	if err := r.agent.ServiceRegister(r.registration); err != nil {
		return fmt.Errorf("register %s: %w", r.registration.ID, err)
	}

	r.logger.Info().Str("service_id", r.registration.ID).Msg("registered with consul")
	return nil
}

func (r *ServiceRegistrar) Deregister() error {
	if err := r.agent.ServiceDeregister(r.registration.ID); err != nil {
		return fmt.Errorf("deregister %s: %w", r.registration.ID, err)
	}

	r.logger.Info().Str("service_id", r.registration.ID).Msg("deregistered from consul")
	return nil
}
