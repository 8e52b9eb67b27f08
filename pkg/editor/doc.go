// Package editor runs product and page editing sessions on top of the form
// model: it loads the record and its lookup lists in parallel, hydrates the
// entity, validates required fields, encodes the multipart payload and sends
// it through the REST client.
//
// Editors are safe to poll from other goroutines (Loading, Banner,
// CanSubmit) while a submission runs. A second Submit during a running one
// returns ErrSubmitInFlight. After Close, results of pending requests are
// dropped and ErrClosed is returned.
package editor
