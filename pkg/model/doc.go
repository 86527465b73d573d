/*
Package model builds graphs from declarative definitions.

A definition names an object and its nodes. Each node is either a constant
value or an expr formula. Formulas read other nodes by calling them:

	nodes:
	  - name: Price
	    flags: [settable]
	    value: 10
	  - name: Total
	    formula: Price() * Qty()

Calls are resolved through the graph while the formula runs, so a formula
only depends on the nodes it actually reads. Scenario definitions carry
what-ifs that are staged when the model is built and applied on Enter.
*/
package model
