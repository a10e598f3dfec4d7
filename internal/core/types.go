package core

import "triggercore/pkg/trigger"

// Aliases keep service callers on a single import while the canonical
// definitions live in pkg/trigger.
type (
	EntityType = trigger.EntityType
	Record     = trigger.Record
	Switch     = trigger.Switch
	Store      = trigger.Store
	Registry   = trigger.Registry
)
