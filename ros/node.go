package ros

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"

	modular "github.com/edwinhayes/logrus-modular"
	"github.com/pkg/errors"

	"github.com/edwinhayes/vicon_mocap/xmlrpc"
)

// *defaultNode implements Node interface
type defaultNode struct {
	name           string
	namespace      string
	qualifiedName  string
	masterURI      string
	xmlrpcURI      string
	xmlrpcListener net.Listener
	xmlrpcHandler  *xmlrpc.Handler
	publishers     sync.Map
	interruptChan  chan os.Signal
	stopChan       chan struct{}
	stopOnce       sync.Once
	shutdownOnce   sync.Once
	moduleLogger   modular.ModuleLogger
	logger         modular.Logger
	ok             bool
	okMutex        sync.RWMutex
	waitGroup      sync.WaitGroup
	logDir         string
	hostname       string
	listenIP       string
	homeDir        string
	nameResolver   *NameResolver
	nonRosArgs     []string
}

func newDefaultNode(name string, args []string) (*defaultNode, error) {
	node := new(defaultNode)

	namespace, nodeName, err := qualifyNodeName(name)
	if err != nil {
		return nil, err
	}

	remapping, params, specials, rest := processArguments(args)

	node.homeDir = filepath.Join(os.Getenv("HOME"), ".ros")
	if homeDir := os.Getenv("ROS_HOME"); len(homeDir) > 0 {
		node.homeDir = homeDir
	}

	node.name = nodeName
	if value, ok := specials["__name"]; ok {
		node.name = value
	}

	node.namespace = namespace
	if ns := os.Getenv("ROS_NAMESPACE"); len(ns) > 0 {
		node.namespace = ns
	}
	if value, ok := specials["__ns"]; ok {
		node.namespace = value
	}
	node.namespace = ensureTrailingSep(canonicalizeName(node.namespace))

	node.logDir = filepath.Join(node.homeDir, "log")
	if logDir := os.Getenv("ROS_LOG_DIR"); len(logDir) > 0 {
		node.logDir = logDir
	}
	if value, ok := specials["__log"]; ok {
		node.logDir = value
	}

	var onlyLocalhost bool
	node.hostname, onlyLocalhost = determineHost()
	if value, ok := specials["__hostname"]; ok {
		node.hostname = value
		onlyLocalhost = value == "localhost"
	} else if value, ok := specials["__ip"]; ok {
		node.hostname = value
		onlyLocalhost = isLocalOnly(value)
	}
	if onlyLocalhost {
		node.listenIP = "127.0.0.1"
	} else {
		node.listenIP = "0.0.0.0"
	}

	node.masterURI = os.Getenv("ROS_MASTER_URI")
	if value, ok := specials["__master"]; ok {
		node.masterURI = value
	}

	node.qualifiedName = node.namespace + node.name
	node.nameResolver = newNameResolver(node.namespace, node.qualifiedName, remapping)
	node.nonRosArgs = rest
	node.stopChan = make(chan struct{})
	node.ok = true

	node.moduleLogger = ChildLogger(NewRootLogger(), NodeModule)
	logger := node.moduleLogger.WithField("node", node.qualifiedName)
	node.logger = logger
	logger.Debugf("Master URI = %s", node.masterURI)

	for k, v := range params {
		key := node.nameResolver.resolve(k)
		if _, err := callRosAPI(node.masterURI, "setParam", node.qualifiedName, key, loadParamFromString(v)); err != nil {
			return nil, errors.Wrapf(err, "set param %s", key)
		}
	}

	listener, err := listenRandomPort(node.listenIP, 10)
	if err != nil {
		return nil, errors.Wrap(err, "slave API listener")
	}
	_, port, err := net.SplitHostPort(listener.Addr().String())
	if err != nil {
		listener.Close()
		return nil, errors.Wrap(err, "slave API listener address")
	}
	node.xmlrpcURI = fmt.Sprintf("http://%s/", net.JoinHostPort(node.hostname, port))
	node.xmlrpcListener = listener
	logger.Debugf("listen on http://%s", listener.Addr().String())

	node.xmlrpcHandler = xmlrpc.NewHandler(node.slaveAPI())
	go http.Serve(node.xmlrpcListener, node.xmlrpcHandler)

	node.interruptChan = make(chan os.Signal, 1)
	signal.Notify(node.interruptChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		if _, ok := <-node.interruptChan; ok {
			logger.Info("Interrupted")
			node.stop()
		}
	}()

	logger.Debugf("Started %s", node.qualifiedName)
	return node, nil
}

func (node *defaultNode) slaveAPI() map[string]xmlrpc.Method {
	return map[string]xmlrpc.Method{
		"getBusStats":      func(callerID string) (interface{}, error) { return node.getBusStats(callerID) },
		"getBusInfo":       func(callerID string) (interface{}, error) { return node.getBusInfo(callerID) },
		"getMasterUri":     func(callerID string) (interface{}, error) { return node.getMasterURI(callerID) },
		"shutdown":         func(callerID string, msg string) (interface{}, error) { return node.shutdown(callerID, msg) },
		"getPid":           func(callerID string) (interface{}, error) { return node.getPid(callerID) },
		"getSubscriptions": func(callerID string) (interface{}, error) { return node.getSubscriptions(callerID) },
		"getPublications":  func(callerID string) (interface{}, error) { return node.getPublications(callerID) },
		"paramUpdate": func(callerID string, key string, value interface{}) (interface{}, error) {
			return node.paramUpdate(callerID, key, value)
		},
		"publisherUpdate": func(callerID string, topic string, publishers []interface{}) (interface{}, error) {
			return node.publisherUpdate(callerID, topic, publishers)
		},
		"requestTopic": func(callerID string, topic string, protocols []interface{}) (interface{}, error) {
			return node.requestTopic(callerID, topic, protocols)
		},
	}
}

func (node *defaultNode) Name() string {
	return node.qualifiedName
}

func (node *defaultNode) OK() bool {
	node.okMutex.RLock()
	defer node.okMutex.RUnlock()
	return node.ok
}

func (node *defaultNode) stop() {
	node.okMutex.Lock()
	node.ok = false
	node.okMutex.Unlock()
	node.stopOnce.Do(func() { close(node.stopChan) })
}

func (node *defaultNode) eachPublisher(f func(*defaultPublisher)) {
	node.publishers.Range(func(_, p interface{}) bool {
		f(p.(*defaultPublisher))
		return true
	})
}

func (node *defaultNode) getBusStats(callerID string) (interface{}, error) {
	publishStats := []interface{}{}
	node.eachPublisher(func(pub *defaultPublisher) {
		publishStats = append(publishStats, pub.busStats())
	})
	stats := []interface{}{publishStats, []interface{}{}, []interface{}{0, 0, 0}}
	return buildRosAPIResult(APIStatusSuccess, "Success", stats), nil
}

func (node *defaultNode) getBusInfo(callerID string) (interface{}, error) {
	info := []interface{}{}
	node.eachPublisher(func(pub *defaultPublisher) {
		info = append(info, pub.busInfo()...)
	})
	return buildRosAPIResult(APIStatusSuccess, "Success", info), nil
}

func (node *defaultNode) getMasterURI(callerID string) (interface{}, error) {
	return buildRosAPIResult(APIStatusSuccess, "Success", node.masterURI), nil
}

func (node *defaultNode) shutdown(callerID string, msg string) (interface{}, error) {
	node.logger.Infof("Shutdown requested by %s: %s", callerID, msg)
	node.stop()
	return buildRosAPIResult(APIStatusSuccess, "Success", 0), nil
}

func (node *defaultNode) getPid(callerID string) (interface{}, error) {
	return buildRosAPIResult(APIStatusSuccess, "Success", os.Getpid()), nil
}

func (node *defaultNode) getSubscriptions(callerID string) (interface{}, error) {
	return buildRosAPIResult(APIStatusSuccess, "Success", []interface{}{}), nil
}

func (node *defaultNode) getPublications(callerID string) (interface{}, error) {
	result := []interface{}{}
	node.eachPublisher(func(pub *defaultPublisher) {
		result = append(result, []interface{}{pub.topic, pub.msgType.Name()})
	})
	return buildRosAPIResult(APIStatusSuccess, "Success", result), nil
}

func (node *defaultNode) paramUpdate(callerID string, key string, value interface{}) (interface{}, error) {
	return buildRosAPIResult(APIStatusError, "Not implemented", 0), nil
}

func (node *defaultNode) publisherUpdate(callerID string, topic string, publishers []interface{}) (interface{}, error) {
	node.logger.Debugf("publisherUpdate(%s) called on a node without subscribers", topic)
	return buildRosAPIResult(APIStatusFailure, "No such topic", 0), nil
}

func (node *defaultNode) requestTopic(callerID string, topic string, protocols []interface{}) (interface{}, error) {
	node.logger.Debugf("Slave API requestTopic(%s, %s, ...) called.", callerID, topic)
	p, ok := node.publishers.Load(topic)
	if !ok {
		return buildRosAPIResult(APIStatusFailure, "No such topic", 0), nil
	}
	pub := p.(*defaultPublisher)
	for _, v := range protocols {
		protocolParams, ok := v.([]interface{})
		if !ok || len(protocolParams) == 0 {
			continue
		}
		if name, _ := protocolParams[0].(string); name != "TCPROS" {
			continue
		}
		host, portStr, err := pub.hostAndPort()
		if err != nil {
			return nil, err
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, errors.Wrapf(err, "publisher port %q", portStr)
		}
		return buildRosAPIResult(APIStatusSuccess, "Success", []interface{}{"TCPROS", host, port}), nil
	}
	return buildRosAPIResult(APIStatusFailure, "No supported protocol", []interface{}{}), nil
}

func (node *defaultNode) NewPublisher(topic string, msgType MessageType) (Publisher, error) {
	return node.NewPublisherWithOptions(topic, msgType, PublisherOptions{})
}

func (node *defaultNode) NewPublisherWithOptions(topic string, msgType MessageType, opts PublisherOptions) (Publisher, error) {
	name := node.nameResolver.remap(topic)
	if pub, ok := node.publishers.Load(name); ok {
		return pub.(*defaultPublisher), nil
	}

	pub, err := newDefaultPublisher(node, name, msgType, opts)
	if err != nil {
		return nil, err
	}
	if _, err := callRosAPI(node.masterURI, "registerPublisher",
		node.qualifiedName, name, msgType.Name(), node.xmlrpcURI); err != nil {
		pub.listener.Close()
		return nil, errors.Wrapf(err, "register publisher %s", name)
	}
	node.publishers.Store(name, pub)
	node.waitGroup.Add(1)
	go pub.start(&node.waitGroup)
	node.logger.Debugf("Advertised %s [%s]", name, msgType.Name())
	return pub, nil
}

// Spin blocks until the node is shut down or interrupted.
func (node *defaultNode) Spin() {
	<-node.stopChan
}

func (node *defaultNode) Shutdown() {
	node.shutdownOnce.Do(func() {
		logger := node.logger
		logger.Debug("Shutting node down")
		node.stop()
		signal.Stop(node.interruptChan)
		close(node.interruptChan)

		node.eachPublisher(func(pub *defaultPublisher) { pub.Shutdown() })
		node.waitGroup.Wait()
		logger.Debug("Publishers stopped")

		node.xmlrpcListener.Close()
		node.xmlrpcHandler.WaitForShutdown()
		logger.Debug("Shutting node down completed")
	})
}

func (node *defaultNode) GetParam(key string) (interface{}, error) {
	name := node.nameResolver.remap(key)
	return callRosAPI(node.masterURI, "getParam", node.qualifiedName, name)
}

func (node *defaultNode) HasParam(key string) (bool, error) {
	name := node.nameResolver.remap(key)
	result, err := callRosAPI(node.masterURI, "hasParam", node.qualifiedName, name)
	if err != nil {
		return false, err
	}
	hasParam, ok := result.(bool)
	if !ok {
		return false, errors.Errorf("hasParam(%s) returned %T", name, result)
	}
	return hasParam, nil
}

func (node *defaultNode) Logger() modular.ModuleLogger {
	return node.moduleLogger
}

func (node *defaultNode) NonRosArgs() []string {
	return node.nonRosArgs
}
