// Package elg defines the European Language Grid message envelopes this service
// speaks: the text request, the annotations response and the failure message.
//
// Objects are encoded in insertion order and carry no fields beyond the ones the
// ELG API defines; the platform rejects responses with extra or reordered keys.
package elg
