package miniq

import "testing"

func TestMatchTopic(t *testing.T) {
	tests := []struct {
		filter string
		topic  string
		match  bool
	}{
		// Exact matches
		{"test/topic", "test/topic", true},
		{"test/topic", "test/other", false},

		// Single-level wildcard (+)
		{"test/+", "test/topic", true},
		{"test/+", "test/other", true},
		{"test/+", "test/topic/sub", false},
		{"test/+/sub", "test/topic/sub", true},
		{"+/topic", "test/topic", true},
		{"+/+", "test/topic", true},

		// Multi-level wildcard (#)
		{"test/#", "test/topic", true},
		{"test/#", "test/topic/sub", true},
		{"test/#", "test/topic/sub/deep", true},
		{"test/#", "other/topic", false},
		{"#", "any/topic/here", true},
		{"test/topic/#", "test/topic", true},
		{"test/topic/#", "test/topic/sub", true},

		// Combined wildcards
		{"+/+/#", "test/topic/sub/deep", true},
		{"test/+/#", "test/topic/sub", true},

		// $ topics are never matched by a leading wildcard
		{"+/config", "$SYS/config", false},
		{"#", "$SYS/broker/load", false},
		{"$SYS/#", "$SYS/broker/load", true},

		// Edge cases
		{"", "", true},
		{"test", "test", true},
		{"test/", "test/", true},
	}

	for _, tt := range tests {
		t.Run(tt.filter+"_vs_"+tt.topic, func(t *testing.T) {
			result := matchTopic(tt.filter, tt.topic)
			if result != tt.match {
				t.Errorf("matchTopic(%q, %q) = %v, want %v", tt.filter, tt.topic, result, tt.match)
			}
		})
	}
}

func TestMatchTopicNoWildcardsIsExactEquality(t *testing.T) {
	for _, topic := range []string{"a", "a/b", "a/b/c", ""} {
		for _, filter := range []string{"a", "a/b", "a/b/c", ""} {
			want := filter == topic
			if got := matchTopic(filter, topic); got != want {
				t.Errorf("matchTopic(%q, %q) = %v, want %v", filter, topic, got, want)
			}
		}
	}
}

func TestSubscriptionTableDispatch(t *testing.T) {
	table := newSubscriptionTable()
	var calls []string
	table.add("sensors/+/temp", func(_ *Client, topic string, _ []byte) {
		calls = append(calls, "sensors/+/temp:"+topic)
	})
	table.add("sensors/#", func(_ *Client, topic string, _ []byte) {
		calls = append(calls, "sensors/#:"+topic)
	})

	table.dispatch(nil, "sensors/a/temp", []byte("20"))
	if len(calls) != 2 {
		t.Fatalf("expected both handlers invoked, got %v", calls)
	}
	if calls[0] != "sensors/+/temp:sensors/a/temp" || calls[1] != "sensors/#:sensors/a/temp" {
		t.Fatalf("unexpected dispatch order: %v", calls)
	}

	calls = nil
	table.dispatch(nil, "sensors/a/hum", []byte("50"))
	if len(calls) != 1 || calls[0] != "sensors/#:sensors/a/hum" {
		t.Fatalf("expected only sensors/# to match, got %v", calls)
	}
}

func TestSubscriptionTableGlobalHandlerOnlyWhenUnmatched(t *testing.T) {
	table := newSubscriptionTable()
	matched := false
	global := false
	table.add("a/b", func(_ *Client, _ string, _ []byte) { matched = true })
	table.onMsg = func(_ *Client, _ string, _ []byte) { global = true }

	table.dispatch(nil, "a/b", nil)
	if !matched || global {
		t.Fatalf("expected only specific handler to run, got matched=%v global=%v", matched, global)
	}

	matched, global = false, false
	table.dispatch(nil, "x/y", nil)
	if matched || !global {
		t.Fatalf("expected only global handler to run, got matched=%v global=%v", matched, global)
	}
}

func TestSubscriptionTableDuplicatePatternReplaces(t *testing.T) {
	table := newSubscriptionTable()
	table.add("a/b", func(_ *Client, _ string, _ []byte) {})
	table.add("a/b", func(_ *Client, _ string, _ []byte) {})
	if len(table.order) != 1 {
		t.Fatalf("expected duplicate pattern to replace, got order %v", table.order)
	}
}
