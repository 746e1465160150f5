// Package plan previews a chart rebuild: which files writing a layout
// would add, remove or modify, with unified diffs of the modified ones.
package plan
