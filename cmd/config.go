package cmd

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/opentext-idol/go-configuration-idol/aci"
	"github.com/opentext-idol/go-configuration-idol/server"
	"github.com/opentext-idol/go-configuration-idol/transport"
	"github.com/spf13/viper"
)

// serverRecord is a server as written in the config file. Unset fields are
// taken from the defaults section
type serverRecord struct {
	Protocol          string   `mapstructure:"protocol"`
	Host              string   `mapstructure:"host"`
	Port              int      `mapstructure:"port"`
	IndexProtocol     string   `mapstructure:"indexProtocol"`
	IndexPort         int      `mapstructure:"indexPort"`
	ServiceProtocol   string   `mapstructure:"serviceProtocol"`
	ServicePort       int      `mapstructure:"servicePort"`
	ProductType       []string `mapstructure:"productType"`
	ProductTypeRegex  string   `mapstructure:"productTypeRegex"`
	IndexErrorMessage string   `mapstructure:"indexErrorMessage"`
}

func (r serverRecord) isZero() bool {
	return r.Protocol == "" && r.Host == "" && r.Port == 0 &&
		r.IndexProtocol == "" && r.IndexPort == 0 &&
		r.ServiceProtocol == "" && r.ServicePort == 0 &&
		len(r.ProductType) == 0 && r.ProductTypeRegex == "" && r.IndexErrorMessage == ""
}

type distributedRecord struct {
	Distributed bool         `mapstructure:"distributed"`
	Standard    serverRecord `mapstructure:"standard"`
	DIH         serverRecord `mapstructure:"dih"`
	DAH         serverRecord `mapstructure:"dah"`
}

// fileConfig is the layout of the config file:
//
//	defaults:
//	  protocol: HTTP
//	servers:
//	  answer:
//	    host: idol.example.com
//	    port: 7700
//	    productType: [ANSWERSERVER]
//	distributed:
//	  content:
//	    distributed: true
//	    dih: {host: dih.example.com, port: 9070, productType: [DIH], indexErrorMessage: "Bad command"}
//	    dah: {host: dah.example.com, port: 9060, productType: [DAH]}
//	portActions:
//	  FILESYSTEM_CONNECTOR: GetStatus
type fileConfig struct {
	Defaults    serverRecord                 `mapstructure:"defaults"`
	Servers     map[string]serverRecord      `mapstructure:"servers"`
	Distributed map[string]distributedRecord `mapstructure:"distributed"`
}

// component is a named topology to validate
type component struct {
	Name     string
	Topology server.Topology
}

func (r serverRecord) toServerConfig() (server.ServerConfig, error) {
	var cfg server.ServerConfig
	var err error

	if cfg.Protocol, err = transport.ParseProtocol(r.Protocol); err != nil {
		return cfg, err
	}
	if cfg.IndexProtocol, err = transport.ParseProtocol(r.IndexProtocol); err != nil {
		return cfg, fmt.Errorf("indexProtocol: %w", err)
	}
	if cfg.ServiceProtocol, err = transport.ParseProtocol(r.ServiceProtocol); err != nil {
		return cfg, fmt.Errorf("serviceProtocol: %w", err)
	}

	cfg.Host = r.Host
	cfg.Port = r.Port
	cfg.IndexPort = r.IndexPort
	cfg.ServicePort = r.ServicePort
	cfg.IndexErrorMessage = r.IndexErrorMessage

	switch {
	case len(r.ProductType) > 0 && r.ProductTypeRegex != "":
		return cfg, errors.New("only one of productType and productTypeRegex may be set")
	case r.ProductTypeRegex != "":
		if cfg.ProductTypes, err = server.KindPattern(r.ProductTypeRegex); err != nil {
			return cfg, err
		}
	case len(r.ProductType) > 0:
		kinds := make([]server.ProductType, 0, len(r.ProductType))
		for _, s := range r.ProductType {
			// allow productType: "AXE,DIH" as well as a list
			for _, part := range strings.Split(s, ",") {
				if strings.TrimSpace(part) == "" {
					continue
				}
				kind, err := server.ParseProductType(part)
				if err != nil {
					return cfg, err
				}
				kinds = append(kinds, kind)
			}
		}
		cfg.ProductTypes = server.ExactKinds(kinds...)
	}

	return cfg, nil
}

func (r distributedRecord) toDistributedConfig(defaults server.ServerConfig) (server.DistributedConfig, error) {
	cfg := server.DistributedConfig{Distributed: r.Distributed}

	for _, s := range []struct {
		role   string
		record serverRecord
		target *server.ServerConfig
	}{
		{role: "standard", record: r.Standard, target: &cfg.Standard},
		{role: "dih", record: r.DIH, target: &cfg.DIH},
		{role: "dah", record: r.DAH, target: &cfg.DAH},
	} {
		sc, err := s.record.toServerConfig()
		if err != nil {
			return cfg, fmt.Errorf("%v: %w", s.role, err)
		}
		// a role that was not written stays empty rather than taking the
		// defaults, otherwise an unused dah would look configured
		if !s.record.isZero() {
			*s.target = server.MergeDefaults(sc, defaults)
		}
	}

	return cfg, nil
}

// loadComponents reads every component of the config file, sorted by name
func loadComponents(v *viper.Viper) ([]component, error) {
	var fc fileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	defaults, err := fc.Defaults.toServerConfig()
	if err != nil {
		return nil, fmt.Errorf("defaults: %w", err)
	}

	var components []component

	for _, name := range slices.Sorted(maps.Keys(fc.Servers)) {
		cfg, err := fc.Servers[name].toServerConfig()
		if err != nil {
			return nil, fmt.Errorf("servers.%v: %w", name, err)
		}
		components = append(components, component{
			Name:     name,
			Topology: server.Standalone{Server: server.MergeDefaults(cfg, defaults)},
		})
	}

	for _, name := range slices.Sorted(maps.Keys(fc.Distributed)) {
		cfg, err := fc.Distributed[name].toDistributedConfig(defaults)
		if err != nil {
			return nil, fmt.Errorf("distributed.%v: %w", name, err)
		}
		components = append(components, component{
			Name:     name,
			Topology: cfg,
		})
	}

	return components, nil
}

// loadPortActions returns the built in port action table with the entries of
// the config file added
func loadPortActions(v *viper.Viper) (server.PortActions, error) {
	actions := server.DefaultPortActions()

	// viper lower cases keys, product types are upper case
	for kind, action := range v.GetStringMapString("portActions") {
		switch strings.ToLower(strings.TrimSpace(action)) {
		case strings.ToLower(string(aci.GetStatus)):
			actions[strings.ToUpper(kind)] = aci.GetStatus
		case strings.ToLower(string(aci.GetChildren)):
			actions[strings.ToUpper(kind)] = aci.GetChildren
		default:
			return nil, fmt.Errorf("portActions.%v: %q cannot be used to fetch ports, expected GetStatus or GetChildren", kind, action)
		}
	}

	return actions, nil
}

// flagComponent builds a component from --host and friends, or returns false
// if --host was not given
func flagComponent(v *viper.Viper) (component, bool, error) {
	if v.GetString("host") == "" {
		return component{}, false, nil
	}

	record := serverRecord{
		Protocol:          v.GetString("protocol"),
		Host:              v.GetString("host"),
		Port:              v.GetInt("port"),
		ProductType:       v.GetStringSlice("product-type"),
		ProductTypeRegex:  v.GetString("product-type-regex"),
		IndexErrorMessage: v.GetString("index-error-message"),
	}

	cfg, err := record.toServerConfig()
	if err != nil {
		return component{}, false, err
	}

	var fc fileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return component{}, false, fmt.Errorf("decoding config: %w", err)
	}
	defaults, err := fc.Defaults.toServerConfig()
	if err != nil {
		return component{}, false, fmt.Errorf("defaults: %w", err)
	}

	return component{
		Name:     "cli",
		Topology: server.Standalone{Server: server.MergeDefaults(cfg, defaults)},
	}, true, nil
}

// selectComponents returns the components named in args, or all of them if
// args is empty
func selectComponents(all []component, args []string) ([]component, error) {
	if len(args) == 0 {
		return all, nil
	}

	var selected []component
	for _, name := range args {
		idx := slices.IndexFunc(all, func(c component) bool { return strings.EqualFold(c.Name, name) })
		if idx < 0 {
			return nil, fmt.Errorf("no component named %q in the config", name)
		}
		selected = append(selected, all[idx])
	}
	return selected, nil
}

// components returns what a command should work on: the server given with
// --host, otherwise the components of the config file
func components(v *viper.Viper, args []string) ([]component, error) {
	c, ok, err := flagComponent(v)
	if err != nil {
		return nil, err
	}
	if ok {
		return []component{c}, nil
	}

	all, err := loadComponents(v)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, errors.New("nothing to do: use --host or a --config file with servers or distributed components")
	}

	return selectComponents(all, args)
}
