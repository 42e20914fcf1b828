package uniqueid

import (
	"fmt"

	"github.com/spf13/pflag"
)

// Strategy is the method used to generate IDs.
type Strategy string

const (
	// StrategySequence generates IDs from the node ID and the reply message
	// ID, which is unique within the node.
	StrategySequence Strategy = "sequence"
	// StrategyUUID generates random UUIDs.
	StrategyUUID Strategy = "uuid"
)

type Config struct {
	Strategy Strategy `json:"strategy" yaml:"strategy"`
}

func Default() *Config {
	return &Config{
		Strategy: StrategySequence,
	}
}

func (c *Config) Validate() error {
	switch c.Strategy {
	case StrategySequence, StrategyUUID:
		return nil
	case "":
		return fmt.Errorf("missing strategy")
	default:
		return fmt.Errorf("unsupported strategy: %s", c.Strategy)
	}
}

func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVar(
		(*string)(&c.Strategy),
		"unique-ids.strategy",
		string(c.Strategy),
		`
The strategy used to generate IDs, either 'sequence' or 'uuid'.

'sequence' combines the node ID with the message ID of the reply, such as
'n1-4'. 'uuid' generates a random UUID for each request.`,
	)
}
