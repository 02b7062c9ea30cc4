// Package merging resolves git conflict markers in localization metadata and
// dictionary files.
//
// The package coordinates:
// - Detecting conflict regions and replacing each one independently.
// - Reconciling ours/theirs fragments per format (metadata scopes, dictionary locale maps).
// - Validating the whole resolved file before it is accepted.
// - Resolving batches of files concurrently, with optional backups and atomic writes.
// - Three-way text merges for use as a git merge driver.
package merging
