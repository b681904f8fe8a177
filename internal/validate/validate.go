// Package validate checks request bodies against the embedded JSON schemas
// before they are decoded.
package validate

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/qri-io/jsonschema"

	"github.com/skillswap/swapd/internal/apperr"
)

// Schema names, one per request body.
const (
	Profile     = "profile"
	Skill       = "skill"
	UserSkill   = "user_skill"
	SwapCreate  = "swap_create"
	Rating      = "rating"
	ChatMessage = "chat_message"
	Broadcast   = "broadcast"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Validator holds the compiled schemas keyed by name. It is read-only after
// construction and safe for concurrent use.
type Validator struct {
	schemas map[string]*jsonschema.Schema
}

// New compiles every embedded schema.
func New() (*Validator, error) {
	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		return nil, fmt.Errorf("read schemas: %w", err)
	}

	v := &Validator{schemas: make(map[string]*jsonschema.Schema, len(entries))}
	for _, e := range entries {
		raw, err := schemaFS.ReadFile(path.Join("schemas", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", e.Name(), err)
		}
		rs := &jsonschema.Schema{}
		if err := json.Unmarshal(raw, rs); err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", e.Name(), err)
		}
		v.schemas[strings.TrimSuffix(e.Name(), ".json")] = rs
	}

	return v, nil
}

// Names lists the loaded schema names in order.
func (v *Validator) Names() []string {
	out := make([]string, 0, len(v.schemas))
	for name := range v.schemas {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Check validates body against the named schema. Malformed JSON and schema
// violations are reported as validation errors.
func (v *Validator) Check(ctx context.Context, name string, body []byte) error {
	rs, ok := v.schemas[name]
	if !ok {
		return apperr.Unexpected(fmt.Errorf("schema %q not loaded", name), "request validation unavailable")
	}
	if !json.Valid(body) {
		return apperr.Validation("invalid JSON body")
	}

	errs, err := rs.ValidateBytes(ctx, body)
	if err != nil {
		return apperr.Validation("invalid JSON body")
	}
	if len(errs) == 0 {
		return nil
	}

	msgs := make([]string, 0, len(errs))
	for _, ke := range errs {
		if ke.PropertyPath != "" && ke.PropertyPath != "/" {
			msgs = append(msgs, fmt.Sprintf("%s: %s", strings.TrimPrefix(ke.PropertyPath, "/"), ke.Message))
			continue
		}
		msgs = append(msgs, ke.Message)
	}

	return apperr.Validation("%s", strings.Join(msgs, "; "))
}
