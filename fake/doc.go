// Package fake
// Author: momentics <momentics@gmail.com>
//
// Fake implementations for testing and development.
// Provides predictable, controllable behavior for the endpoint, decoder,
// session, write-handler and reactor contracts.
package fake
