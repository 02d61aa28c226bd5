// Package report renders an operator-facing markdown summary of a resolved
// stack configuration from embedded templates.
//
// It exists so the reviewable output of a resolution pass lives as a
// separate, easily readable `.tmpl` file outside of Go string literals.
// Operators diff the rendered report between configuration changes to see
// exactly which entities, routes, and rules moved.
//
// Example:
//
//	resolved, err := resolve.Resolve(raw, lookups, nil)
//	if err != nil { ... }
//	md, err := report.Render(report.TplResolutionReport, report.Build(resolved))
package report
