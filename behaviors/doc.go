// Package behaviors provides ready-made intercept behaviors.
//
// Each behavior reads its own marker through Call.Marker. Default orders,
// outermost first:
//
//	metrics    -30
//	logging    -20
//	ratelimit  -15
//	timeout    -10
//	envelope    -5
//	cache       -2
//	activity     0
//
// A marker's order hint overrides the default. RegisterBuiltins wires every
// behavior whose dependencies are available into a Registry.
package behaviors
