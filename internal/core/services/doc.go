// Package services implements the core agent pipeline: the model gateway,
// similarity ranking, semantic note search, the tool catalog and executor,
// and the orchestrator that ties one agent turn together.
package services
