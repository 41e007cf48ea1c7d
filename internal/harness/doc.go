// Package harness runs compiler conformance scenarios.
//
// A scenario is a YAML file naming a project configuration, a set of
// source files and assertions on what the compiler produces for them:
//
//	name: async_low_reset
//	description: "if_reset tests an active-low reset"
//	config: |
//	  [project]
//	  name = "prj"
//	  [build]
//	  reset_type = "async_low"
//	files:
//	  - path: top.veryl
//	    source: |
//	      module Top (...) { ... }
//	assertions:
//	  - type: output_contains
//	    file: top.sv
//	    text: "if (!i_rst) begin"
//	  - type: no_errors
//
// # Assertion Types
//
//   - output_contains: the emitted file contains text
//   - output_excludes: the emitted file does not contain text
//   - output_order: lines appear in the emitted file in the given order
//   - error_kinds: the diagnostics include every listed kind
//   - no_errors: no diagnostic of error severity was reported
//
// Each scenario is written to a fresh directory and compiled through the
// same loader, analysis and emission the veryl command uses.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/reset.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario, t.TempDir())
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
