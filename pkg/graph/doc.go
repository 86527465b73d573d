/*
Package graph implements the incremental computation engine behind strata.

A Graph holds memoized computations (Nodes) whose values are evaluated lazily,
cached per DataStore and invalidated when any of their transitive inputs change.
Dependencies are discovered while evaluating: every node read by a computation
becomes one of its inputs.

# Stores and Scenarios

Values live in DataStores. The root store is always present. A Scenario is a
DataStore that can be pushed on top of the active stack with Enter and removed
with Exit. Reads fall through a scenario to the store that was active when it
was entered; writes never leave the store they target. Fixed values placed in a
scenario (what-ifs) survive Exit and are re-applied on the next Enter, while
computed values are discarded.

# Concurrency

A Graph is not safe for concurrent use. Callers that share one across
goroutines must serialize access themselves.
*/
package graph
