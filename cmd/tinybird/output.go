package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// print writes v to stdout in the selected output format. YAML is produced
// from the JSON encoding so field names match the API.
func (a *app) print(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	if a.output == "yaml" {
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		enc := yaml.NewEncoder(a.cfg.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		return enc.Close()
	}
	_, err = fmt.Fprintln(a.cfg.Stdout, string(data))
	return err
}

// write copies raw bytes to stdout, as returned by export calls.
func (a *app) write(data []byte) error {
	_, err := a.cfg.Stdout.Write(data)
	return err
}

func (a *app) context(parent context.Context) (context.Context, context.CancelFunc) {
	if a.timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, a.timeout)
}

// parseParams turns key=value arguments into a parameter map. A key given
// more than once becomes a list.
func parseParams(args []string) (map[string]any, error) {
	params := make(map[string]any, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("parameter %q is not key=value", arg)
		}
		switch prev := params[key].(type) {
		case nil:
			params[key] = value
		case string:
			params[key] = []string{prev, value}
		case []string:
			params[key] = append(prev, value)
		}
	}
	return params, nil
}
