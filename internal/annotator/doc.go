// Package annotator defines the boundary between the service and the external
// self-harm annotation engines. An Engine turns a text unit into ordered
// annotation records keyed by the text unit's identifier; the service treats
// every engine as an opaque collaborator and relies only on that contract.
//
// Implementations live under internal/platform (lexicon, remote, gemini).
package annotator
