package ros

import (
	modular "github.com/edwinhayes/logrus-modular"
)

// Node is a ROS node that advertises topics. A publish-only node never
// subscribes, so Spin just waits for shutdown.
type Node interface {
	Name() string
	NewPublisher(topic string, msgType MessageType) (Publisher, error)
	NewPublisherWithOptions(topic string, msgType MessageType, opts PublisherOptions) (Publisher, error)

	OK() bool
	Spin()
	Shutdown()

	GetParam(name string) (interface{}, error)
	HasParam(name string) (bool, error)

	// Logger is the node's module logger. Its root is shared by every
	// publisher of the node.
	Logger() modular.ModuleLogger

	// NonRosArgs are the arguments left after remappings, private params
	// and special keys are removed.
	NonRosArgs() []string
}

func NewNode(name string, args []string) (Node, error) {
	return newDefaultNode(name, args)
}

// PublisherOptions tunes a publisher beyond topic and type.
type PublisherOptions struct {
	// QueueSize bounds the messages buffered per subscriber connection.
	// The oldest message is dropped when a queue overflows.
	QueueSize int
	// Latch replays the last published message to every new subscriber.
	Latch bool
}

// DefaultQueueSize is used when PublisherOptions.QueueSize is not positive.
const DefaultQueueSize = 100

type Publisher interface {
	Publish(msg Message) error
	GetNumSubscribers() int
	Shutdown()
}
