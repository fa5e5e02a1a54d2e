// Package discovery registers the service with a Consul agent.
package discovery

import (
	"fmt"

	"github.com/hashicorp/consul/api"
)

// Registration describes one service instance.
type Registration struct {
	ID      string
	Name    string
	Address string
	Port    int
	Tags    []string
	// HealthGRPC is the host:port of the gRPC health endpoint Consul should probe.
	HealthGRPC string
}

// Registry wraps a Consul agent client.
type Registry struct {
	client *api.Client
}

// NewRegistry connects to the Consul agent at addr, or the client default when addr is empty.
func NewRegistry(addr string) (*Registry, error) {
	cfg := api.DefaultConfig()
	if addr != "" {
		cfg.Address = addr
	}

	client, err := api.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create consul client: %w", err)
	}

	return &Registry{client: client}, nil
}

// Register adds the instance to the local agent.
func (r *Registry) Register(reg Registration) error {
	svc := &api.AgentServiceRegistration{
		ID:      reg.ID,
		Name:    reg.Name,
		Address: reg.Address,
		Port:    reg.Port,
		Tags:    reg.Tags,
	}

	if reg.HealthGRPC != "" {
		svc.Check = &api.AgentServiceCheck{
			GRPC:                           reg.HealthGRPC,
			Interval:                       "10s",
			Timeout:                        "3s",
			DeregisterCriticalServiceAfter: "1m",
		}
	}

	if err := r.client.Agent().ServiceRegister(svc); err != nil {
		return fmt.Errorf("register service %s: %w", reg.ID, err)
	}
	return nil
}

// Deregister removes the instance from the local agent.
func (r *Registry) Deregister(id string) error {
	if err := r.client.Agent().ServiceDeregister(id); err != nil {
		return fmt.Errorf("deregister service %s: %w", id, err)
	}
	return nil
}
