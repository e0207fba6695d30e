package miniq

import "strings"

// MessageHandler is invoked for an inbound PUBLISH whose topic matches a
// registered pattern, or for the global handler when nothing matches.
// The callback must not call back into the Client: see spec.md section 5.
type MessageHandler func(c *Client, topic string, payload []byte)

// subscriptionTable is an ordered mapping from subscription pattern to
// callback, per spec.md section 4.2. Insertion order is irrelevant to
// matching, but is preserved so that dispatch order is deterministic and
// matches the order callers registered patterns in.
type subscriptionTable struct {
	order    []string
	handlers map[string]MessageHandler
	onMsg    MessageHandler
}

func newSubscriptionTable() *subscriptionTable {
	return &subscriptionTable{handlers: make(map[string]MessageHandler)}
}

// add registers fn for pattern, replacing any existing callback for the
// same pattern in place (duplicate patterns replace the prior callback,
// per spec.md section 3).
func (t *subscriptionTable) add(pattern string, fn MessageHandler) {
	if _, exists := t.handlers[pattern]; !exists {
		t.order = append(t.order, pattern)
	}
	t.handlers[pattern] = fn
}

// remove deletes the callback registered for pattern, if any.
func (t *subscriptionTable) remove(pattern string) {
	if _, exists := t.handlers[pattern]; !exists {
		return
	}
	delete(t.handlers, pattern)
	for i, p := range t.order {
		if p == pattern {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// dispatch invokes every callback whose pattern matches topic, in
// insertion order. If none match and a global handler is set, the
// global handler is invoked exactly once, per spec.md section 4.2.
func (t *subscriptionTable) dispatch(c *Client, topic string, payload []byte) {
	matched := false
	for _, pattern := range t.order {
		if matchTopic(pattern, topic) {
			matched = true
			t.handlers[pattern](c, topic, payload)
		}
	}
	if !matched && t.onMsg != nil {
		t.onMsg(c, topic, payload)
	}
}

// matchTopic reports whether topic matches filter under MQTT wildcard
// rules: '+' matches exactly one level, '#' matches zero or more
// trailing levels and is only valid as the filter's final segment.
// Segments are separated by '/'.
func matchTopic(filter, topic string) bool {
	// A filter beginning with a wildcard never matches a topic beginning
	// with '$' (MQTT-4.7.2-1), applied here for local dispatch symmetry
	// even though the rule is phrased in terms of server behavior.
	if len(topic) > 0 && topic[0] == '$' {
		if len(filter) > 0 && (filter[0] == '+' || filter[0] == '#') {
			return false
		}
	}

	filterRest, topicRest := filter, topic
	topicExhausted := false
	for {
		level, nextFilter, filterHasMore := strings.Cut(filterRest, "/")
		if level == "#" {
			return true
		}
		if topicExhausted {
			return false
		}

		topicLevel, nextTopic, topicHasMore := strings.Cut(topicRest, "/")
		if level != "+" && level != topicLevel {
			return false
		}
		if !filterHasMore {
			return !topicHasMore
		}

		filterRest = nextFilter
		if topicHasMore {
			topicRest = nextTopic
		} else {
			topicExhausted = true
		}
	}
}
