// Package session
// Author: momentics <momentics@gmail.com>
//
// Reference session layer over the muxio write contract. A Session owns
// the outbound frame queue for one connection and enforces the contract
// the adapter relies on: at most one write in flight, the next frame
// written only from the previous frame's completion. Inbound frames are
// dispatched to an application handler; pings are echoed; GoAway runs the
// graceful-shutdown handshake ending in an output-side half-close.
package session
