// Package domain contains the core business types for the Workbench
// assistant: conversations, the tool catalog, notes and their embeddings,
// and the collaborator record shapes (tasks, expenses, weather).
//
// Domain types have no dependencies on adapters or external services.
// Services in internal/core/services operate on these types through the
// ports defined in internal/core/ports.
package domain
