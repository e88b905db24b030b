package events

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("webhook writer", func() {
	It("posts the event to the sink", func() {
		received := make(chan *http.Request, 1)
		bodies := make(chan []byte, 1)
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b, _ := io.ReadAll(r.Body)
			received <- r
			bodies <- b
			w.WriteHeader(http.StatusAccepted)
		}))
		defer ts.Close()

		w, err := NewWebhookWriter(ts.URL, 5*time.Second)
		Expect(err).To(BeNil())

		e := cloudevents.NewEvent()
		e.SetID("evt-1")
		e.SetSource(eventSource)
		e.SetType(ContactMessageKind)
		Expect(e.SetData(*cloudevents.StringOfApplicationJSON(), []byte(`{"job_id":"j1"}`))).To(Succeed())

		Expect(w.Write(context.TODO(), "kaamsetu.events", e)).To(Succeed())

		var r *http.Request
		Eventually(received).Should(Receive(&r))
		Expect(r.Header.Get("Ce-Type")).To(Equal(ContactMessageKind))
		Expect(r.Header.Get("Ce-Id")).To(Equal("evt-1"))
		Expect(r.Header.Get("Ce-Topic")).To(Equal("kaamsetu.events"))
		Expect(<-bodies).To(MatchJSON(`{"job_id":"j1"}`))
	})

	It("fails when the sink refuses the event", func() {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer ts.Close()

		w, err := NewWebhookWriter(ts.URL, 5*time.Second)
		Expect(err).To(BeNil())

		e := cloudevents.NewEvent()
		e.SetID("evt-2")
		e.SetSource(eventSource)
		e.SetType(ContactMessageKind)

		Expect(w.Write(context.TODO(), "kaamsetu.events", e)).ToNot(Succeed())
	})
})

var _ = Describe("whatsapp link", func() {
	DescribeTable("builds the deep link",
		func(phone, expected string) {
			Expect(WhatsAppLink(phone)).To(Equal(expected))
		},
		Entry("plain number", "9876543210", "https://wa.me/919876543210"),
		Entry("with country code", "+91 98765 43210", "https://wa.me/919876543210"),
		Entry("with trunk prefix", "09876543210", "https://wa.me/919876543210"),
		Entry("empty", "", ""),
	)
})
