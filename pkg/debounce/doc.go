// Package debounce collapses bursts of writes into a single delayed delivery.
//
// A Cell keeps only the most recently Set item. Each Set restarts the quiet period;
// once it elapses without another Set, the item is delivered exactly once and the
// cell becomes empty. Intermediate items are never delivered.
//
//	cell := debounce.New(300*time.Millisecond, func(q SearchQuery) {
//		runSearch(q)
//	})
//	cell.Set(SearchQuery{Term: "g"})
//	cell.Set(SearchQuery{Term: "go"}) // only this one is delivered
//
// Set never blocks on delivery. Deliveries are serialized, so a slow deliver
// callback delays the next delivery instead of running beside it.
package debounce
