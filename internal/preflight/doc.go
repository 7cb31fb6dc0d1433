// Package preflight provides readiness checks for the filesystem paths and
// external services a review session depends on.
//
// These checks run in two contexts:
//   - The CLI "voiceloom preflight" command runs RunAll before an operator
//     commits to an import, so a missing voice service or unwritable
//     workspace surfaces up front instead of mid-session.
//   - The CLI status output uses individual check functions to display
//     service health.
package preflight
