/*
Package dsl binds ordinary Go functions to a graph as per-instance computations.

A Method declares a computation once for a type. Binding it to an owner yields
an Accessor whose Get reads through the graph, so results are memoized and
dependencies between methods are discovered automatically.

Example usage:

	type Book struct {
		*dsl.Object
	}

	var (
		Spot  = dsl.NewMethod("Spot", graph.Settable, func(b *Book, _ ...any) (float64, error) { return 100, nil })
		Value = dsl.NewMethod("Value", graph.ReadOnly, func(b *Book, _ ...any) (float64, error) {
			spot, err := Spot.Bind(b).Get()
			return spot * 2, err
		})
	)

	func main() {
		g := graph.New()
		book := &Book{Object: dsl.NewObject(g, "book")}

		_ = Spot.Bind(book).Set(120)
		v, _ := Value.Bind(book).Get() // 240
	}
*/
package dsl
