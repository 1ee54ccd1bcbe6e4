package messaging

import "github.com/segmentio/kafka-go"

// headerCarrier adapts Kafka message headers to propagation.TextMapCarrier.
type headerCarrier struct {
	headers *[]kafka.Header
}

func (c headerCarrier) Get(key string) string {
	for _, h := range *c.headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c headerCarrier) Set(key, value string) {
	headers := *c.headers
	for i := range headers {
		if headers[i].Key == key {
			headers[i].Value = []byte(value)
			return
		}
	}
	*c.headers = append(headers, kafka.Header{Key: key, Value: []byte(value)})
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, len(*c.headers))
	for _, h := range *c.headers {
		keys = append(keys, h.Key)
	}
	return keys
}
