// Package coordinator decides when the nearby scanner runs and what the UI is
// told about it.
//
// Three asynchronous sources feed it:
//
//   - app lifecycle transitions (active / background)
//   - scanner events (item update, item lost, network error, start completion)
//   - user requests (mount, refresh)
//
// # Event Loop
//
// Every source posts an event onto one queue. Run drains that queue on a
// single goroutine and is the only place coordinator state changes, so
// handlers never interleave and no locking is needed around the state:
//
//	coord := coordinator.New(beacon.Factory(cfg), st, st,
//	    coordinator.WithLifecycle(lifecycleSource),
//	    coordinator.WithAlerter(ui),
//	)
//	go coord.Run(ctx)
//	coord.Mount()
//
// # Searching Indicator
//
// Starting a scan dispatches INDICATE_SCANNING=true at once. When the
// scanner reports that it has started, a grace timer is armed; if it runs
// out the indicator is cleared while the scanner keeps running. A new
// successful start cancels the previous timer before arming its own, and
// each timer event carries the generation it was armed with, so a timer
// from an earlier scan can never clear the indicator of a later one.
//
// # Network Alerts
//
// Scanner network errors raise one blocking alert. Further errors are
// dropped while it is open, and for a short cooldown after the user
// acknowledges it, which absorbs the tail of a failure burst.
//
// # Failures
//
// No operation returns an error to its caller. A scanner start that fails
// leaves the coordinator stopped with the indicator cleared; a start that
// does not settle within the start timeout clears the indicator but keeps
// the scanner marked as running.
package coordinator
