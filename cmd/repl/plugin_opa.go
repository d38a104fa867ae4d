package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bawdo/sqlupdate/plugins"
	"github.com/bawdo/sqlupdate/plugins/opa"
)

const opaTimeout = 5 * time.Second

// opaPluginRef holds the OPA server configuration of an enabled plugin.
type opaPluginRef struct {
	url    string
	policy string
	input  map[string]any
}

// configureOPA parses OPA arguments and registers the plugin.
//
//	plugin opa <url> <policy> [path=value ...]
//
// Each path=value pair sets a field of the input document, e.g.
// subject.tenant=42 sets {"subject": {"tenant": 42}}.
func configureOPA(s *Session, args string) error {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return errors.New("usage: plugin opa <url> <policy> [path=value ...]")
	}
	ref := &opaPluginRef{url: fields[0], policy: fields[1], input: map[string]any{}}
	for _, pair := range fields[2:] {
		path, raw, ok := strings.Cut(pair, "=")
		if !ok || path == "" || strings.HasPrefix(path, ".") || strings.HasSuffix(path, ".") {
			return fmt.Errorf("invalid input %q (want path=value)", pair)
		}
		setNestedValue(ref.input, path, parseInputValue(raw))
	}

	client := opa.NewClient(ref.url, ref.policy, ref.input)
	s.opaConfig = ref
	s.plugins.register(pluginEntry{
		name: "opa",
		factory: func() plugins.Transformer {
			return opa.NewFromServer(ref.url, ref.policy, ref.input, opa.WithTimeout(opaTimeout))
		},
		status: func() string {
			return fmt.Sprintf("%s %s, %d input(s)", client.BaseURL(), client.PolicyPath(), countLeaves(ref.input))
		},
	})
	_, _ = fmt.Fprintf(s.out, "  OPA enabled (%s at %s)\n", client.PolicyPath(), client.BaseURL())
	return nil
}

// cmdOPAInputs asks the server which input fields the policy reads and
// prints them with the values currently configured.
func (s *Session) cmdOPAInputs(args string) error {
	if s.opaConfig == nil {
		return errors.New("OPA is not enabled (use 'plugin opa <url> <policy>')")
	}
	table := strings.TrimSpace(args)
	if table == "" && s.update != nil && s.update.Statement.Table != nil {
		table = s.update.Statement.Table.Name
	}
	var unknowns []string
	if table != "" {
		unknowns = append(unknowns, "data."+table)
	}

	ctx, cancel := context.WithTimeout(context.Background(), opaTimeout)
	defer cancel()
	client := opa.NewClient(s.opaConfig.url, s.opaConfig.policy, nil)
	paths, err := client.DiscoverInputs(ctx, unknowns...)
	if err != nil {
		return fmt.Errorf("OPA: cannot reach server at %s: %w", client.BaseURL(), err)
	}
	if len(paths) == 0 {
		_, _ = fmt.Fprintln(s.out, "  Policy reads no input fields")
		return nil
	}
	_, _ = fmt.Fprintf(s.out, "  Policy reads %d input(s):\n", len(paths))
	for _, path := range paths {
		if v, ok := getNestedValue(s.opaConfig.input, path); ok {
			_, _ = fmt.Fprintf(s.out, "    %s = %v\n", path, v)
		} else {
			_, _ = fmt.Fprintf(s.out, "    %s (not set)\n", path)
		}
	}
	return nil
}

// parseInputValue reads a REPL value, keeping unquoted words as strings.
func parseInputValue(raw string) any {
	if v, err := parseValue(raw); err == nil {
		return v
	}
	return raw
}

func setNestedValue(m map[string]any, path string, val any) {
	parts := strings.Split(path, ".")
	current := m
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = val
}

func getNestedValue(m map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	current := m
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			return nil, false
		}
		current = next
	}
	v, ok := current[parts[len(parts)-1]]
	return v, ok
}

func countLeaves(m map[string]any) int {
	n := 0
	for _, v := range m {
		if nested, ok := v.(map[string]any); ok {
			n += countLeaves(nested)
		} else {
			n++
		}
	}
	return n
}

// inputLines flattens the input document into sorted path = value lines.
func inputLines(m map[string]any, prefix string) []string {
	var out []string
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			out = append(out, inputLines(nested, prefix+k+".")...)
		} else {
			out = append(out, fmt.Sprintf("%s%s = %v", prefix, k, v))
		}
	}
	sort.Strings(out)
	return out
}

func (s *Session) cmdOPAStatus() {
	if s.opaConfig == nil {
		_, _ = fmt.Fprintln(s.out, "  OPA: off")
		return
	}
	client := opa.NewClient(s.opaConfig.url, s.opaConfig.policy, nil)
	_, _ = fmt.Fprintln(s.out, "  OPA: on")
	_, _ = fmt.Fprintf(s.out, "    Server: %s\n", client.BaseURL())
	_, _ = fmt.Fprintf(s.out, "    Policy: %s\n", client.PolicyPath())
	lines := inputLines(s.opaConfig.input, "")
	if len(lines) == 0 {
		_, _ = fmt.Fprintln(s.out, "    Inputs: (none)")
		return
	}
	_, _ = fmt.Fprintln(s.out, "    Inputs:")
	for _, l := range lines {
		_, _ = fmt.Fprintf(s.out, "      %s\n", l)
	}
}
