package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/opentext-idol/go-configuration-idol/server"
	"github.com/opentext-idol/go-configuration-idol/transport"
	"go.yaml.in/yaml/v3"
)

type outputFormat string

const (
	outputTable outputFormat = "table"
	outputJSON  outputFormat = "json"
	outputYAML  outputFormat = "yaml"
)

func parseOutputFormat(s string) (outputFormat, error) {
	switch f := outputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "", outputTable:
		return outputTable, nil
	case outputJSON, outputYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q, expected table, json or yaml", s)
	}
}

// componentResult is the validation result of one component
type componentResult struct {
	Name   string        `json:"name" yaml:"name"`
	Result server.Result `json:"result" yaml:"result"`
}

// discoveredServer is one server of a component with its discovered ports
type discoveredServer struct {
	Component string `json:"component" yaml:"component"`
	Role      string `json:"role" yaml:"role"`
	ACI       string `json:"aci" yaml:"aci"`
	Index     string `json:"index,omitempty" yaml:"index,omitempty"`
	Service   string `json:"service,omitempty" yaml:"service,omitempty"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
}

func writeStructured(w io.Writer, format outputFormat, v any) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%v is not a structured format", format)
	}
}

func renderResults(w io.Writer, format outputFormat, results []componentResult) error {
	if format != outputTable {
		return writeStructured(w, format, results)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Component", "Valid", "Reasons"})

	for _, r := range results {
		t.AppendRow(table.Row{r.Name, validMarker(r.Result.Valid), describeResult(r.Result)})
	}

	t.Render()

	return nil
}

func renderDiscovered(w io.Writer, format outputFormat, servers []discoveredServer) error {
	if format != outputTable {
		return writeStructured(w, format, servers)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Component", "Role", "ACI", "Index", "Service", "Error"})

	for _, s := range servers {
		errText := s.Error
		if errText != "" {
			errText = red(errText)
		}
		t.AppendRow(table.Row{s.Component, s.Role, s.ACI, s.Index, s.Service, errText})
	}

	t.Render()

	return nil
}

func validMarker(valid bool) string {
	if valid {
		return green("yes")
	}
	return red("no")
}

// describeResult renders the reasons of a result on one line, naming the
// role of each server of a distributed component
func describeResult(r server.Result) string {
	switch data := r.Data.(type) {
	case nil:
		return ""
	case server.Validation:
		return string(data)
	case server.IncorrectServerTypeDetails:
		return fmt.Sprintf("%v (expected %v)", data.Validation, strings.Join(data.FriendlyNames, ", "))
	case server.DistributedResultDetails:
		var parts []string
		if data.DIH != nil {
			parts = append(parts, "dih: "+describeResult(*data.DIH))
		}
		if data.DAH != nil {
			parts = append(parts, "dah: "+describeResult(*data.DAH))
		}
		return strings.Join(parts, "; ")
	default:
		return fmt.Sprint(data)
	}
}

func describePort(d transport.Details) string {
	if d.Port == 0 {
		return ""
	}
	return d.String()
}
