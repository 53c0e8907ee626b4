// Package service holds the annotation use case: it builds an engine for the
// request, runs it once over the submitted text, and reshapes the engine's
// records into ELG annotations. Every fault on that path, panics included, is
// returned as a *ProcessingError so the API layer can report it uniformly.
package service
