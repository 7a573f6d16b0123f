package sqldb

import "fmt"

// ClientFactory is a callback that constructs a Client from Conf.
// It is registered with RegisterFactory by each impl package and called by sqldb.New.
type ClientFactory func(conf *Conf) (Client, error)

var registry = map[string]ClientFactory{}

func RegisterFactory(dbType string, factory ClientFactory) {
	registry[dbType] = factory
}

func New(conf *Conf) (Client, error) {
	factory, ok := registry[conf.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported database type: %s", conf.Type)
	}
	return factory(conf)
}
