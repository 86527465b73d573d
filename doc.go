/*
Package strata is an incremental computation engine with what-if scenarios.

A model declares nodes: constants and formulas over other nodes. Reading a
node computes it once and memoizes the result; dependencies are discovered
while formulas run, so only the nodes a formula actually read are recomputed
when one of them changes.

# Scenarios

A scenario is a named overlay holding what-ifs: values fixed only while the
scenario is active. Scenarios nest, and everything computed inside one is
discarded when it exits, so exploring alternatives never disturbs the base
values.

# Usage

	def, err := model.LoadFile("pricing.yaml")
	if err != nil {
		log.Fatal(err)
	}
	eng, err := strata.New(def, strata.WithStore(memory.NewStore()))
	if err != nil {
		log.Fatal(err)
	}
	entries, err := eng.Eval([]string{"bulk"}, "Total")

# Persistence

With WithStore, values fixed with Set on stored nodes are written to a
ports.FixedStore, and Restore loads them back into a fresh engine. What-ifs
are never persisted.
*/
package strata
