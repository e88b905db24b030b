package events

import "time"

type ProducerOptions func(e *EventProducer)

func WithOutputTopic(topic string) ProducerOptions {
	return func(e *EventProducer) {
		e.topic = topic
	}
}

// WithBufferSize bounds the number of pending events. Older events are dropped first.
func WithBufferSize(size int) ProducerOptions {
	return func(e *EventProducer) {
		e.buffer = newBuffer(size)
	}
}

// WithWriteTimeout bounds every call to the writer.
func WithWriteTimeout(timeout time.Duration) ProducerOptions {
	return func(e *EventProducer) {
		if timeout > 0 {
			e.writeTimeout = timeout
		}
	}
}
