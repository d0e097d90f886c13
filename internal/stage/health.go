package stage

// Health reports whether a stage has what it needs to run: binaries on
// PATH, directories writable, remote endpoints reachable.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy marks a stage ready.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy marks a stage not ready and says why.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}
