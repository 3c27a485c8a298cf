// Package origin implements origin-based trust decisions for the bridge.
//
// Cross-context messaging carries an origin with every inbound event. This
// package centralizes the accept/reject rule so it is testable on its own
// instead of living as inline checks at call sites. Trust derives purely
// from the channel configuration: the host's own origin plus, for an
// absolute peer target, the target's origin.
package origin
