package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/datagrid/internal/ir"
)

// snapshot converts a result into the canonical object stored in golden
// files. Rows appear only for executed scenarios and error only on failure.
func snapshot(scenarioName string, result *Result) (ir.IRObject, error) {
	params, err := irList(result.Params)
	if err != nil {
		return nil, err
	}

	obj := ir.IRObject{
		"scenario_name": ir.IRString(scenarioName),
		"grid":          ir.IRString(result.Grid),
		"sql":           ir.IRString(result.SQL),
		"params":        params,
		"rejected":      ir.Strings(result.Rejected...),
		"unknown":       ir.Strings(result.Unknown...),
	}
	if result.Rows != nil {
		rows := make(ir.IRArray, len(result.Rows))
		for i, row := range result.Rows {
			rows[i] = row
		}
		obj["rows"] = rows
	}
	if result.Error != "" {
		obj["error"] = ir.IRString(result.Error)
	}
	return obj, nil
}

// MarshalSnapshot renders the golden file content for a result.
func MarshalSnapshot(scenarioName string, result *Result) ([]byte, error) {
	obj, err := snapshot(scenarioName, result)
	if err != nil {
		return nil, err
	}
	return ir.MarshalCanonical(obj)
}

// RunWithGolden executes a scenario and compares the outcome against a
// golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the outcome doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
