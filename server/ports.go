package server

import (
	"context"
	"fmt"

	"github.com/opentext-idol/go-configuration-idol/aci"
	log "github.com/sirupsen/logrus"
)

// PortActions maps a reported product type to the action used to fetch its
// ports. Types not in the table use GetChildren
type PortActions map[string]aci.Action

// DefaultPortActions returns the built in table. Some versions of Distributed
// Connector do not report their service port from GetChildren
func DefaultPortActions() PortActions {
	return PortActions{
		string(DistributedConnector): aci.GetStatus,
	}
}

// Ports are the ports reported by a server. IndexPort is zero if none was
// reported
type Ports struct {
	ACIPort     int
	IndexPort   int
	ServicePort int
}

// portAction chooses the action used to fetch the ports. GetStatus is the
// only action reporting the index port, so it is always used when one is
// expected
func (v *Validator) portAction(cfg ServerConfig, reported []string) aci.Action {
	if cfg.HasIndexPort() {
		return aci.GetStatus
	}

	for _, kind := range reported {
		if action, ok := v.portActions[kind]; ok {
			return action
		}
	}

	return aci.GetChildren
}

// determinePorts asks the server for its ports using exactly one action. Any
// failure is wrapped in ErrConnection
func (v *Validator) determinePorts(ctx context.Context, cfg ServerConfig, reported []string) (Ports, error) {
	action := v.portAction(cfg, reported)

	log.WithContext(ctx).WithFields(log.Fields{
		"host":   cfg.Host,
		"port":   cfg.Port,
		"action": action,
	}).Debug("Determining ports")

	res, err := v.aci.Execute(ctx, cfg.ACIDetails(), action)
	if err != nil {
		return Ports{}, fmt.Errorf("%w: %w", ErrConnection, err)
	}

	switch action {
	case aci.GetStatus:
		var status aci.StatusResponse
		if err := res.Decode(&status); err != nil {
			return Ports{}, fmt.Errorf("%w: %w", ErrConnection, err)
		}
		return Ports{
			ACIPort:     status.ACIPort,
			IndexPort:   status.IndexPort,
			ServicePort: status.ServicePort,
		}, nil
	case aci.GetChildren:
		var children aci.ChildrenResponse
		if err := res.Decode(&children); err != nil {
			return Ports{}, fmt.Errorf("%w: %w", ErrConnection, err)
		}
		return Ports{
			ACIPort:     children.Port,
			ServicePort: children.ServicePort,
		}, nil
	default:
		return Ports{}, fmt.Errorf("%w: %v cannot be used to fetch ports", ErrConnection, action)
	}
}
