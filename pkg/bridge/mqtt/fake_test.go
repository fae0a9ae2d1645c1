package mqtt

import (
	"sync"

	paho "github.com/eclipse/paho.mqtt.golang"
)

type pubRecord struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

type fakeMessage struct {
	paho.Message
	topic   string
	payload []byte
}

func (m *fakeMessage) Topic() string   { return m.topic }
func (m *fakeMessage) Payload() []byte { return m.payload }

// fakePaho records the calls the Client makes and delivers messages to
// the registered callbacks. Methods not overridden panic.
type fakePaho struct {
	paho.Client

	lock   sync.Mutex
	subs   map[string]paho.MessageHandler
	unsubs []string
	pubs   []pubRecord
}

func newFakePaho() *fakePaho {
	return &fakePaho{subs: make(map[string]paho.MessageHandler)}
}

func (f *fakePaho) Subscribe(topic string, qos byte, cb paho.MessageHandler) paho.Token {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.subs[topic] = cb
	return &paho.DummyToken{}
}

func (f *fakePaho) SubscribeMultiple(filters map[string]byte, cb paho.MessageHandler) paho.Token {
	f.lock.Lock()
	defer f.lock.Unlock()
	for topic := range filters {
		f.subs[topic] = cb
	}
	return &paho.DummyToken{}
}

func (f *fakePaho) Unsubscribe(topics ...string) paho.Token {
	f.lock.Lock()
	defer f.lock.Unlock()
	for _, topic := range topics {
		delete(f.subs, topic)
		f.unsubs = append(f.unsubs, topic)
	}
	return &paho.DummyToken{}
}

func (f *fakePaho) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.pubs = append(f.pubs, pubRecord{topic: topic, payload: payload.([]byte), qos: qos, retained: retained})
	return &paho.DummyToken{}
}

func (f *fakePaho) subscribed() []string {
	f.lock.Lock()
	defer f.lock.Unlock()
	topics := make([]string, 0, len(f.subs))
	for topic := range f.subs {
		topics = append(topics, topic)
	}
	return topics
}

func (f *fakePaho) published() []pubRecord {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]pubRecord(nil), f.pubs...)
}

// deliver simulates the broker routing a message.
func (f *fakePaho) deliver(topic string, payload []byte) {
	var cbs []paho.MessageHandler
	f.lock.Lock()
	for filter, cb := range f.subs {
		if MatchTopic(topic, filter) {
			cbs = append(cbs, cb)
		}
	}
	f.lock.Unlock()
	for _, cb := range cbs {
		cb(f, &fakeMessage{topic: topic, payload: payload})
	}
}
