// Package errors provides structured, actionable error messages for reflow
// tooling.
//
// The errors package implements an error system that:
//   - Shows exact source locations (file, line, column) where applicable
//   - Explains what went wrong in plain language
//   - Suggests how to fix issues with code examples
//   - Links to documentation for deeper understanding
//
// # Error Categories
//
// Errors are organized into categories:
//   - runtime: Reactive graph errors (effect panics, disposed scopes)
//   - scheduler: Flush errors (feedback loops, budget exhaustion)
//   - inject: Context resolution errors (missing providers)
//   - config: reflow.json errors (parse failures, invalid values)
//   - cli: Command-line usage errors
//
// # Error Codes
//
// Each error has a unique code (e.g., "E001") that maps to:
//   - A short message describing the error
//   - A detailed explanation
//   - A documentation URL
//
// # Usage
//
//	err := errors.New("E020").
//	    WithSuggestion("Provide a value for this key in an ancestor scope")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E020: No provider found for injection key
//	//
//	//   Inject walks the scope chain upward looking for a Provide call ...
//	//
//	//   Hint: Provide a value for this key in an ancestor scope
//	//
//	//   Learn more: https://reflow-ui.dev/docs/errors/E020
//
// The reactive core does not depend on this package; it returns plain
// sentinel and typed errors. This package exists to present them in the CLI
// and the inspector.
package errors
