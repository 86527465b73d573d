/*
Package ports defines the driven ports of strata.

The graph engine itself has no I/O. Fixed values of stored nodes are handed to
a FixedStore, which adapters implement for memory, files, Redis and SQLite.

# Key Interfaces

  - FixedStore: persists the fixed values of stored nodes by node label.
*/
package ports
