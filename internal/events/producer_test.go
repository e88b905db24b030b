package events

import (
	"bytes"
	"context"
	"sync"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("producer", Ordered, func() {
	Context("write", func() {
		It("writes succsessfully", func() {
			w := newTestWriter()
			kp := NewEventProducer(w)

			// add the first message
			msg := []byte(`{"msg":1}`)
			err := kp.Write(context.TODO(), ContactMessageKind, bytes.NewReader(msg))
			Expect(err).To(BeNil())
			Eventually(w.Len).Should(Equal(1))
			Expect(w.Get(0).Context.GetType()).To(Equal(ContactMessageKind))
			Expect(w.Get(0).Source()).To(Equal(eventSource))

			msg = []byte(`{"msg":2}`)
			err = kp.Write(context.TODO(), AssignedMessageKind, bytes.NewReader(msg))
			Expect(err).To(BeNil())

			Eventually(w.Len).Should(Equal(2))
			Expect(w.Get(1).Type()).To(Equal(AssignedMessageKind))
			Expect(w.Get(1).Data()).To(Equal(msg))

			Expect(kp.Close()).To(BeNil())
		})

		It("keeps the order of buffered messages", func() {
			w := newTestWriter()
			kp := NewEventProducer(w, WithOutputTopic("custom"))

			for _, kind := range []string{ContactMessageKind, AssignedMessageKind, CompletedMessageKind} {
				Expect(kp.Write(context.TODO(), kind, bytes.NewReader([]byte("{}")))).To(BeNil())
			}

			Eventually(w.Len).Should(Equal(3))
			Expect(w.Get(0).Type()).To(Equal(ContactMessageKind))
			Expect(w.Get(1).Type()).To(Equal(AssignedMessageKind))
			Expect(w.Get(2).Type()).To(Equal(CompletedMessageKind))
			Expect(w.topics).To(ConsistOf("custom", "custom", "custom"))

			Expect(kp.Close()).To(BeNil())
		})
	})
})

type testwriter struct {
	lock     sync.Mutex
	Messages []cloudevents.Event
	topics   []string
}

func newTestWriter() *testwriter {
	return &testwriter{Messages: []cloudevents.Event{}}
}

func (t *testwriter) Write(ctx context.Context, topic string, e cloudevents.Event) error {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.Messages = append(t.Messages, e)
	t.topics = append(t.topics, topic)
	return nil
}

func (t *testwriter) Len() int {
	t.lock.Lock()
	defer t.lock.Unlock()
	return len(t.Messages)
}

func (t *testwriter) Get(i int) cloudevents.Event {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.Messages[i]
}

func (t *testwriter) Close(_ context.Context) error {
	return nil
}
