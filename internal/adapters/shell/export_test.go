package shell

// SetGOOS overrides the platform used for executable lookup.
func (e *Executor) SetGOOS(goos string) {
	e.goos = goos
}
