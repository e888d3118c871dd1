package duckdb

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// Params are the DuckDB session options read from target.params:
//
//	params:
//	  extensions: [httpfs]
//	  settings: {memory_limit: 2GB, threads: "4"}
//	  secrets:
//	    - type: s3
//	      scope: s3://warehouse
//	      options: {provider: credential_chain, region: eu-west-1}
type Params struct {
	Extensions []string          `mapstructure:"extensions"`
	Settings   map[string]string `mapstructure:"settings"`
	Secrets    []Secret          `mapstructure:"secrets"`
}

// Secret is rendered as CREATE OR REPLACE SECRET. Options are passed through
// as KEY 'value' pairs, except provider which DuckDB expects unquoted.
type Secret struct {
	Name    string            `mapstructure:"name"`
	Type    string            `mapstructure:"type"`
	Scope   []string          `mapstructure:"scope"`
	Options map[string]string `mapstructure:"options"`
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func parseParams(raw map[string]any) (*Params, error) {
	p := &Params{}
	if len(raw) == 0 {
		return p, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           p,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode duckdb params: %w", err)
	}

	for _, ext := range p.Extensions {
		if !identRe.MatchString(ext) {
			return nil, fmt.Errorf("invalid extension name %q", ext)
		}
	}
	for key := range p.Settings {
		if !identRe.MatchString(key) {
			return nil, fmt.Errorf("invalid setting name %q", key)
		}
	}
	for i := range p.Secrets {
		s := &p.Secrets[i]
		if s.Type == "" {
			return nil, fmt.Errorf("secret %d: type is required", i)
		}
		if s.Name == "" {
			s.Name = fmt.Sprintf("txt2sql_secret_%d", i)
		}
		if !identRe.MatchString(s.Name) || !identRe.MatchString(s.Type) {
			return nil, fmt.Errorf("secret %d: name and type must be identifiers", i)
		}
		for key := range s.Options {
			if !identRe.MatchString(key) {
				return nil, fmt.Errorf("secret %s: invalid option %q", s.Name, key)
			}
		}
	}
	return p, nil
}

// sessionStatements returns the statements run on every fresh connection:
// extension installs and loads, sorted settings, then secrets.
func (p *Params) sessionStatements() []string {
	var stmts []string
	for _, ext := range p.Extensions {
		stmts = append(stmts, "INSTALL "+ext, "LOAD "+ext)
	}
	for _, k := range sortedKeys(p.Settings) {
		stmts = append(stmts, fmt.Sprintf("SET %s = %s", k, quoteLiteral(p.Settings[k])))
	}
	for _, s := range p.Secrets {
		stmts = append(stmts, s.createSQL())
	}
	return stmts
}

func (s Secret) createSQL() string {
	opts := []string{"TYPE " + s.Type}
	for _, k := range sortedKeys(s.Options) {
		v := s.Options[k]
		if strings.EqualFold(k, "provider") && identRe.MatchString(v) {
			opts = append(opts, "PROVIDER "+v)
			continue
		}
		opts = append(opts, strings.ToUpper(k)+" "+quoteLiteral(v))
	}

	switch len(s.Scope) {
	case 0:
	case 1:
		opts = append(opts, "SCOPE "+quoteLiteral(s.Scope[0]))
	default:
		quoted := make([]string, len(s.Scope))
		for i, scope := range s.Scope {
			quoted[i] = quoteLiteral(scope)
		}
		opts = append(opts, "SCOPE ("+strings.Join(quoted, ", ")+")")
	}
	return fmt.Sprintf("CREATE OR REPLACE SECRET %s (%s)", s.Name, strings.Join(opts, ", "))
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func quoteLiteral(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}
