// Package driven defines the outbound ports of the Workbench core:
// model providers (chat, embedding, rerank) and the CRUD/weather
// collaborators the tool executor calls. Adapters under
// internal/adapters/driven implement these interfaces.
package driven
