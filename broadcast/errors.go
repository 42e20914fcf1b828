package broadcast

import "fmt"

// ConfigurationError indicates the cluster configuration supplied to the
// node is unusable, such as a topology without an entry for the local node.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s", e.Reason)
}
