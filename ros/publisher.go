package ros

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	modular "github.com/edwinhayes/logrus-modular"
	"github.com/pkg/errors"
)

// ErrPublisherShutdown is returned by Publish after Shutdown.
var ErrPublisherShutdown = errors.New("publisher is shut down")

const sessionWriteTimeout = time.Second

type remoteSubscriberSessionError struct {
	session *remoteSubscriberSession
	err     error
}

func (e *remoteSubscriberSessionError) Error() string {
	return fmt.Sprintf("remoteSubscriberSession %s error: %v", e.session.conn.RemoteAddr(), e.err)
}

// defaultPublisher owns its sessions from the start goroutine; other
// goroutines talk to it over channels only.
type defaultPublisher struct {
	node              *defaultNode
	topic             string
	msgType           MessageType
	queueSize         int
	latch             bool
	msgChan           chan []byte
	shutdownChan      chan struct{}
	shutdownOnce      sync.Once
	doneChan          chan struct{}
	sessions          map[*remoteSubscriberSession]struct{}
	sessionChan       chan *remoteSubscriberSession
	sessionErrorChan  chan error
	listenerErrorChan chan error
	listener          net.Listener
	logger            modular.Logger
	numSubscribers    int32
	nextConnectionID  int32
	connected         sync.Map
}

func newDefaultPublisher(node *defaultNode, topic string, msgType MessageType, opts PublisherOptions) (*defaultPublisher, error) {
	queueSize := opts.QueueSize
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	listener, err := listenRandomPort(node.listenIP, 10)
	if err != nil {
		return nil, errors.Wrapf(err, "publisher %s", topic)
	}
	return &defaultPublisher{
		node:              node,
		topic:             topic,
		msgType:           msgType,
		queueSize:         queueSize,
		latch:             opts.Latch,
		msgChan:           make(chan []byte, 10),
		shutdownChan:      make(chan struct{}),
		doneChan:          make(chan struct{}),
		sessions:          make(map[*remoteSubscriberSession]struct{}),
		sessionChan:       make(chan *remoteSubscriberSession, 10),
		sessionErrorChan:  make(chan error, 10),
		listenerErrorChan: make(chan error, 1),
		listener:          listener,
		logger:            ChildLogger(node.moduleLogger.GetRoot(), TopicModule+topic),
	}, nil
}

func (pub *defaultPublisher) start(wg *sync.WaitGroup) {
	logger := pub.logger
	logger.Debug("Publisher goroutine started")
	defer func() {
		close(pub.doneChan)
		logger.Debug("Publisher goroutine exit")
		wg.Done()
	}()

	go pub.listenRemoteSubscriber()

	var lastMsg []byte
	for {
		select {
		case msg := <-pub.msgChan:
			if pub.latch {
				lastMsg = msg
			}
			for s := range pub.sessions {
				s.enqueue(msg)
			}
		case s := <-pub.sessionChan:
			pub.sessions[s] = struct{}{}
			if lastMsg != nil {
				s.enqueue(lastMsg)
			}
			go s.start()
		case err := <-pub.sessionErrorChan:
			if sessionError, ok := err.(*remoteSubscriberSessionError); ok {
				logger.Debug(err)
				delete(pub.sessions, sessionError.session)
			} else {
				logger.Error(err)
			}
		case err := <-pub.listenerErrorChan:
			logger.Warnf("Listener closed unexpectedly: %s", err)
			pub.closeSessions()
			return
		case <-pub.shutdownChan:
			pub.listener.Close()
			if _, err := callRosAPI(pub.node.masterURI, "unregisterPublisher",
				pub.node.qualifiedName, pub.topic, pub.node.xmlrpcURI); err != nil {
				logger.Warn(err)
			}
			pub.closeSessions()
			return
		}
	}
}

func (pub *defaultPublisher) closeSessions() {
	for s := range pub.sessions {
		close(s.quitChan)
	}
	pub.sessions = make(map[*remoteSubscriberSession]struct{})
}

func (pub *defaultPublisher) listenRemoteSubscriber() {
	logger := pub.logger
	logger.Debugf("Start listen %s.", pub.listener.Addr().String())
	for {
		conn, err := pub.listener.Accept()
		if err != nil {
			select {
			case <-pub.shutdownChan:
			default:
				pub.listenerErrorChan <- err
			}
			return
		}
		logger.Debugf("Connected %s", conn.RemoteAddr().String())
		id := atomic.AddInt32(&pub.nextConnectionID, 1)
		select {
		case pub.sessionChan <- newRemoteSubscriberSession(pub, conn, id):
		case <-pub.doneChan:
			conn.Close()
			return
		}
	}
}

// Publish serializes msg once and queues it for every connected subscriber.
func (pub *defaultPublisher) Publish(msg Message) error {
	var buf bytes.Buffer
	if err := msg.Serialize(&buf); err != nil {
		return errors.Wrapf(err, "serialize %s", msg.Type().Name())
	}
	select {
	case <-pub.doneChan:
		return ErrPublisherShutdown
	default:
	}
	select {
	case pub.msgChan <- buf.Bytes():
		return nil
	case <-pub.doneChan:
		return ErrPublisherShutdown
	}
}

func (pub *defaultPublisher) GetNumSubscribers() int {
	return int(atomic.LoadInt32(&pub.numSubscribers))
}

func (pub *defaultPublisher) Shutdown() {
	pub.shutdownOnce.Do(func() { close(pub.shutdownChan) })
	<-pub.doneChan
}

func (pub *defaultPublisher) hostAndPort() (string, string, error) {
	_, port, err := net.SplitHostPort(pub.listener.Addr().String())
	if err != nil {
		return "", "", errors.Wrap(err, "publisher listener address")
	}
	return pub.node.hostname, port, nil
}

// busInfo and busStats answer the getBusInfo and getBusStats slave API
// calls from the XMLRPC server goroutines.
func (pub *defaultPublisher) busInfo() []interface{} {
	info := []interface{}{}
	pub.connected.Range(func(k, _ interface{}) bool {
		s := k.(*remoteSubscriberSession)
		info = append(info, []interface{}{s.id, s.callerID(), "o", "TCPROS", pub.topic, true})
		return true
	})
	return info
}

func (pub *defaultPublisher) busStats() []interface{} {
	var bytesSent int64
	stats := []interface{}{}
	pub.connected.Range(func(k, _ interface{}) bool {
		s := k.(*remoteSubscriberSession)
		sent := atomic.LoadInt64(&s.bytesSent)
		bytesSent += sent
		stats = append(stats, []interface{}{s.id, sent, atomic.LoadInt64(&s.numSent), true})
		return true
	})
	return []interface{}{pub.topic, bytesSent, stats}
}

type remoteSubscriberSession struct {
	pub       *defaultPublisher
	id        int32
	conn      net.Conn
	quitChan  chan struct{}
	msgChan   chan []byte
	logger    modular.Logger
	connected int32
	bytesSent int64
	numSent   int64
	nameMutex sync.Mutex
	subName   string
}

func newRemoteSubscriberSession(pub *defaultPublisher, conn net.Conn, id int32) *remoteSubscriberSession {
	return &remoteSubscriberSession{
		pub:      pub,
		id:       id,
		conn:     conn,
		quitChan: make(chan struct{}),
		msgChan:  make(chan []byte, pub.queueSize),
		logger:   pub.logger.WithField("remote", conn.RemoteAddr().String()),
	}
}

// enqueue never blocks. When the queue is full the oldest message goes.
func (session *remoteSubscriberSession) enqueue(msg []byte) {
	for {
		select {
		case session.msgChan <- msg:
			return
		default:
		}
		select {
		case <-session.msgChan:
		default:
		}
	}
}

func (session *remoteSubscriberSession) isConnected() bool {
	return atomic.LoadInt32(&session.connected) == 1
}

func (session *remoteSubscriberSession) callerID() string {
	session.nameMutex.Lock()
	defer session.nameMutex.Unlock()
	return session.subName
}

func (session *remoteSubscriberSession) start() {
	pub := session.pub
	logger := session.logger
	err := session.serve()
	session.conn.Close()
	if session.isConnected() {
		atomic.StoreInt32(&session.connected, 0)
		atomic.AddInt32(&pub.numSubscribers, -1)
		pub.connected.Delete(session)
	}
	if err == nil {
		err = errors.New("normal exit")
	}
	logger.Debugf("Session closed: %s", err)
	select {
	case pub.sessionErrorChan <- &remoteSubscriberSessionError{session, err}:
	case <-pub.doneChan:
	}
}

func (session *remoteSubscriberSession) serve() error {
	pub := session.pub
	logger := session.logger

	session.conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	headers, err := readConnectionHeader(session.conn)
	if err != nil {
		return errors.Wrap(err, "read connection header")
	}
	session.conn.SetReadDeadline(time.Time{})
	fields := headerMap(headers)
	logger.Debugf("TCPROS connection header: %v", fields)

	typeName := pub.msgType.Name()
	md5sum := pub.msgType.MD5Sum()
	if fields["type"] != typeName && fields["type"] != "*" {
		return errors.Errorf("incompatible message type for topic %s: %s vs %s", pub.topic, typeName, fields["type"])
	}
	if fields["md5sum"] != md5sum && fields["md5sum"] != "*" {
		return errors.Errorf("incompatible message md5 for topic %s: %s vs %s", pub.topic, md5sum, fields["md5sum"])
	}

	latching := "0"
	if pub.latch {
		latching = "1"
	}
	resHeaders := []header{
		{"message_definition", pub.msgType.Text()},
		{"callerid", pub.node.qualifiedName},
		{"latching", latching},
		{"md5sum", md5sum},
		{"topic", pub.topic},
		{"type", typeName},
	}
	if err := writeConnectionHeader(resHeaders, session.conn); err != nil {
		return err
	}
	if fields["probe"] == "1" {
		return nil
	}

	session.nameMutex.Lock()
	session.subName = fields["callerid"]
	session.nameMutex.Unlock()
	atomic.StoreInt32(&session.connected, 1)
	atomic.AddInt32(&pub.numSubscribers, 1)
	pub.connected.Store(session, struct{}{})
	logger.Infof("Subscriber %s connected", fields["callerid"])

	var frame bytes.Buffer
	for {
		select {
		case <-session.quitChan:
			return nil
		case msg := <-session.msgChan:
			frame.Reset()
			binary.Write(&frame, binary.LittleEndian, uint32(len(msg)))
			frame.Write(msg)
			session.conn.SetWriteDeadline(time.Now().Add(sessionWriteTimeout))
			n, err := session.conn.Write(frame.Bytes())
			if err != nil {
				return errors.Wrap(err, "write message")
			}
			atomic.AddInt64(&session.bytesSent, int64(n))
			atomic.AddInt64(&session.numSent, 1)
		}
	}
}
