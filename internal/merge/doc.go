// Package merge joins two datasets on a composite key and tracks the
// per-row conflicts between them.
//
// The join is an outer join anchored on the primary dataset: every primary
// row appears once, in order, merged with at most one matching secondary
// row; secondary rows with no primary match follow, in their own order.
// Where both sides define a shared column with different non-null values
// the merged row keeps the primary value and a Conflict is recorded. The
// caller later picks a Source per conflicting row and calls Resolve, which
// never modifies the join output.
//
// Both functions are pure and synchronous. Nothing here holds state between
// calls, so a Result may be shared read-only across goroutines.
package merge
