// Package errors provides coded, structured errors for bloom.
//
// Each error carries a code (for example "E102") that maps to a registered
// template with a category, a short message and a longer explanation.
// Errors wrap an underlying cause, so errors.Is and errors.As see through
// them to package sentinels such as router.ErrNotFound.
//
// # Error Categories
//
//   - routing: no route accepts a path
//   - runtime: producer failures, missing mount points
//   - config: unreadable or invalid bloom.json / bloom.yaml
//   - cli: command line usage errors
//   - export: static export failures
//
// # Usage
//
//	err := errors.New("E102").
//	    WithDetail(`no element with id "app"`).
//	    WithSuggestion(`Add <div id="app"></div> to the page body`).
//	    Wrap(bloom.ErrMountTargetMissing)
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E102: Mount target missing
//	//
//	//   no element with id "app"
//	//
//	//   Hint: Add <div id="app"></div> to the page body
package errors
