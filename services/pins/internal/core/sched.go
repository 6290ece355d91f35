package core

// Sampler is polled periodically from the system tick.
type Sampler interface {
	Tick(nowUs uint64)
}

// Scheduler registers samplers. The returned func removes the registration.
type Scheduler interface {
	Every(s Sampler) (cancel func())
}
