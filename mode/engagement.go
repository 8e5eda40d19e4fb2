package mode

// Engagement is the outcome of arbitration for one axis on one computer.
type Engagement struct {
	CanEngage   bool
	HasPriority bool
	Engaged     bool
}

// Arbitrate decides whether this computer drives an axis. The primary unit
// for the axis holds priority by default. The other unit defers to it
// unless the primary reports that it has lost the axis.
func Arbitrate(canEngage, isPrimary, primaryFailed bool) Engagement {
	priority := isPrimary || primaryFailed
	return Engagement{
		CanEngage:   canEngage,
		HasPriority: priority,
		Engaged:     canEngage && priority,
	}
}
