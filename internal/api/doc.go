// Package api handles the ELG HTTP surface: request decoding and validation,
// dispatch to the annotation service, and the mapping of results and faults to
// ELG response and failure envelopes.
package api
