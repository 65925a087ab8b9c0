package discovery

import (
	"fmt"
	"log"
	"strconv"

	"dialogue-service/internal/config"

	"github.com/hashicorp/consul/api"
)

type ServiceRegistry struct {
	client *api.Client
	config *config.Config
}

func NewServiceRegistry(cfg *config.Config) (*ServiceRegistry, error) {
	consulConfig := api.DefaultConfig()
	consulConfig.Address = cfg.Consul.Address

	client, err := api.NewClient(consulConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Consul client: %v", err)
	}

	return &ServiceRegistry{client: client, config: cfg}, nil
}

// Register announces the HTTP endpoint with a health check so the gateway
// can route /dialogue traffic here.
func (sr *ServiceRegistry) Register() error {
	httpPort, err := strconv.Atoi(sr.config.Server.Port)
	if err != nil {
		return fmt.Errorf("invalid HTTP port: %v", err)
	}

	serviceID := fmt.Sprintf("%s-%s", sr.config.Server.ServiceName, sr.config.Server.ServiceAddress)

	registration := &api.AgentServiceRegistration{
		ID:      serviceID + "-http",
		Name:    sr.config.Server.ServiceName,
		Port:    httpPort,
		Address: sr.config.Server.ServiceAddress,
		Check: &api.AgentServiceCheck{
			HTTP:     fmt.Sprintf("http://%s:%s/health", sr.config.Server.ServiceAddress, sr.config.Server.Port),
			Interval: "10s",
			Timeout:  "5s",
		},
		Tags: []string{"dialogue", "simulation", "http", "api"},
		Meta: map[string]string{
			"protocol": "http",
			"version":  "2.0",
		},
	}

	if err := sr.client.Agent().ServiceRegister(registration); err != nil {
		return fmt.Errorf("failed to register service with Consul: %v", err)
	}

	log.Printf("Registered %s with Consul at %s:%d", sr.config.Server.ServiceName, sr.config.Server.ServiceAddress, httpPort)
	return nil
}

func (sr *ServiceRegistry) Deregister() error {
	serviceID := fmt.Sprintf("%s-%s-http", sr.config.Server.ServiceName, sr.config.Server.ServiceAddress)
	if err := sr.client.Agent().ServiceDeregister(serviceID); err != nil {
		log.Printf("Error deregistering service: %v", err)
		return err
	}
	return nil
}
