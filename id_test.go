package pulse

import "testing"

func TestIdTagsSorted(t *testing.T) {
	id := NewId("requests", Tag{"zone", "b"}, Tag{"app", "www"}, Tag{"node", "i-1"})
	tags := id.Tags()
	if len(tags) != 3 {
		t.Fatalf("expected 3 tags, got %d", len(tags))
	}
	if tags[0].Key != "app" || tags[1].Key != "node" || tags[2].Key != "zone" {
		t.Fatalf("expected tags sorted by key, got %v", tags)
	}
}

func TestIdDuplicateKeysLastWins(t *testing.T) {
	id := NewId("requests", Tag{"zone", "a"}, Tag{"zone", "b"})
	v, ok := id.Tag("zone")
	if !ok || v != "b" {
		t.Fatalf("expected zone=b, got %q ok=%v", v, ok)
	}
}

func TestIdWithTagDoesNotMutate(t *testing.T) {
	base := NewId("requests", Tag{"app", "www"})
	derived := base.WithTag("zone", "a")
	if _, ok := base.Tag("zone"); ok {
		t.Fatalf("expected the base id to stay unchanged")
	}
	if v, _ := derived.Tag("zone"); v != "a" {
		t.Fatalf("expected zone=a on the derived id, got %q", v)
	}
}

func TestIdWithStat(t *testing.T) {
	id := NewId("latency").WithStat(StatMax)
	if v, _ := id.Tag(TagStatistic); v != StatMax {
		t.Fatalf("expected statistic=max, got %q", v)
	}
}

func TestIdStatRetainedThroughReappliedTags(t *testing.T) {
	// The derivation used by the meters: re-applying the original tags
	// keeps a statistic that was already set on the id.
	orig := NewId("queue.depth", Tag{TagStatistic, "p99"})
	derived := orig.WithStat(StatMax).WithTags(orig.Tags()...).WithTag(TagDsType, DsGauge)
	if v, _ := derived.Tag(TagStatistic); v != "p99" {
		t.Fatalf("expected the pre-set statistic to survive, got %q", v)
	}
	if v, _ := derived.Tag(TagDsType); v != DsGauge {
		t.Fatalf("expected dsType=gauge, got %q", v)
	}
}

func TestIdString(t *testing.T) {
	if got := NewId("plain").String(); got != "plain" {
		t.Fatalf("expected %q, got %q", "plain", got)
	}
	id := NewId("requests", Tag{"zone", "a"}, Tag{"app", "www"})
	if got := id.String(); got != "requests:app=www,zone=a" {
		t.Fatalf("expected sorted rendering, got %q", got)
	}
}

func TestIdMapKeyOrderInsensitive(t *testing.T) {
	a := NewId("requests", Tag{"zone", "a"}, Tag{"app", "www"})
	b := NewId("requests", Tag{"app", "www"}, Tag{"zone", "a"})
	if a.mapKey() != b.mapKey() {
		t.Fatalf("expected identical keys, got %q and %q", a.mapKey(), b.mapKey())
	}
}
