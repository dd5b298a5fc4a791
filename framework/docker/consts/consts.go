package consts

const (
	// CleanupLabel is attached to every container created for a test run; its value
	// is the cleanup label of the client that created the container.
	CleanupLabel = "nodenv-cleanup"

	// EnvironmentLabel carries the id of the Environment owning a container.
	EnvironmentLabel = "nodenv-environment"

	// LoopbackHost is where published node ports are reached from the test process.
	LoopbackHost = "127.0.0.1"
)
