package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/datagrid/internal/querysql"
)

// Scenario defines one end-to-end grid check.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schema is a CUE file or directory, relative to the scenario file.
	Schema string `yaml:"schema"`

	// Grid selects the grid inside the schema.
	Grid string `yaml:"grid"`

	// Dialect is the SQL dialect to render; defaults to sqlite.
	Dialect string `yaml:"dialect,omitempty"`

	// StableOrder is an optional tiebreaker column appended to ORDER BY.
	StableOrder string `yaml:"stable_order,omitempty"`

	// Fixtures are SQL statements run on a fresh in-memory SQLite database
	// before the compiled query. Without fixtures the query is not executed.
	Fixtures []string `yaml:"fixtures,omitempty"`

	// Input is the request, with optional filter, sort and paginate sections.
	Input map[string]any `yaml:"input,omitempty"`

	// Assertions validate the compiled query and its rows.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates one aspect of a scenario result.
type Assertion struct {
	// Type specifies the assertion type:
	// - "sql_equals": rendered SQL equals SQL
	// - "sql_contains": rendered SQL contains Contains
	// - "params": rendered parameters equal Params
	// - "rejected": rejected input names equal Names
	// - "unknown": unknown input names equal Names
	// - "rows": Column of every returned row equals Values, in order
	// - "row_count": exactly Count rows returned
	// - "error": compiling failed with a message containing Contains
	Type string `yaml:"type"`

	SQL      string   `yaml:"sql,omitempty"`
	Contains string   `yaml:"contains,omitempty"`
	Params   []any    `yaml:"params,omitempty"`
	Names    []string `yaml:"names,omitempty"`
	Column   string   `yaml:"column,omitempty"`
	Values   []any    `yaml:"values,omitempty"`
	Count    int      `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertSQLEquals   = "sql_equals"
	AssertSQLContains = "sql_contains"
	AssertParams      = "params"
	AssertRejected    = "rejected"
	AssertUnknown     = "unknown"
	AssertRows        = "rows"
	AssertRowCount    = "row_count"
	AssertError       = "error"
)

// LoadScenario reads and parses a scenario YAML file.
// The schema path is resolved relative to the scenario file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict fields catch typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Schema != "" && !filepath.IsAbs(scenario.Schema) {
		scenario.Schema = filepath.Join(filepath.Dir(path), scenario.Schema)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml file in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("list scenarios: %w", err)
	}
	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Schema == "" {
		return fmt.Errorf("schema is required")
	}

	if _, err := os.Stat(s.Schema); os.IsNotExist(err) {
		return fmt.Errorf("schema not found: %s", s.Schema)
	}

	if s.Grid == "" {
		return fmt.Errorf("grid is required")
	}

	dialect := querysql.DialectSQLite
	if s.Dialect != "" {
		d, err := querysql.ParseDialect(s.Dialect)
		if err != nil {
			return err
		}
		dialect = d
	}

	if len(s.Fixtures) > 0 && dialect != querysql.DialectSQLite {
		return fmt.Errorf("fixtures require the sqlite dialect, got %s", dialect)
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion, len(s.Fixtures) > 0); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, hasFixtures bool) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertSQLEquals:
		if a.SQL == "" {
			return fmt.Errorf("assertions[%d]: sql is required for sql_equals", index)
		}
	case AssertSQLContains, AssertError:
		if a.Contains == "" {
			return fmt.Errorf("assertions[%d]: contains is required for %s", index, a.Type)
		}
	case AssertParams, AssertRejected, AssertUnknown:
		// An omitted list asserts that there is nothing.
	case AssertRows:
		if a.Column == "" {
			return fmt.Errorf("assertions[%d]: column is required for rows", index)
		}
		if !hasFixtures {
			return fmt.Errorf("assertions[%d]: rows requires fixtures", index)
		}
	case AssertRowCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for row_count", index)
		}
		if !hasFixtures {
			return fmt.Errorf("assertions[%d]: row_count requires fixtures", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
