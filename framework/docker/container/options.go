package container

// Options contains extra configuration applied to a node container
type Options struct {
	// Environment variables
	Env []string
	// Labels are merged with the labels the launcher sets; the launcher wins on conflicts.
	Labels map[string]string
}
