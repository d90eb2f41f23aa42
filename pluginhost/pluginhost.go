// Package pluginhost is a sample plugin collaborator for creole.Parser. It
// recognizes a single plugin verb, "eval", and evaluates the remainder of
// the plugin body as an expr-lang expression, in the same spirit as
// chtml/interpol.go compiling an attribute expression and chtml/component.go
// running it against a scope - except here the result is fed back into the
// parser via ParsePluginText instead of being attached to a DOM node.
package pluginhost

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/wikicreole/creole"
)

// Host evaluates <<eval EXPR>> plugin bodies. The zero value is ready to
// use; Vars, if set, supplies the variable environment every expression is
// compiled and run against.
type Host struct {
	Vars map[string]any
}

// New returns a Host with no variables bound.
func New() *Host {
	return &Host{Vars: map[string]any{}}
}

// Handle implements creole.PluginHandler. It is meant to be installed with
// p.SetPluginHandler(host.Handle).
func (h *Host) Handle(p *creole.Parser, body []byte) error {
	verb, rest, _ := strings.Cut(strings.TrimSpace(string(body)), " ")
	switch verb {
	case "eval":
		return h.handleEval(p, rest)
	default:
		return fmt.Errorf("pluginhost: unknown plugin verb %q: %w", verb, creole.ErrBadInput)
	}
}

func (h *Host) handleEval(p *creole.Parser, src string) error {
	program, err := expr.Compile(src, expr.Env(h.Vars))
	if err != nil {
		return fmt.Errorf("pluginhost: compile %q: %w", src, err)
	}
	result, err := expr.Run(program, h.Vars)
	if err != nil {
		return fmt.Errorf("pluginhost: run %q: %w", src, err)
	}
	return p.ParsePluginText([]byte(fmt.Sprint(result)))
}
