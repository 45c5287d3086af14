package pulse

import (
	"sort"
	"strings"
)

// Tag keys used to qualify derived measurement ids.
const (
	// TagStatistic marks which statistic of a meter a measurement carries.
	TagStatistic = "statistic"
	// TagDsType tells downstream consumers how to interpret a value.
	TagDsType = "dsType"
)

// Statistic values reported by the built-in meters.
const (
	StatCount          = "count"
	StatGauge          = "gauge"
	StatMax            = "max"
	StatTotalTime      = "totalTime"
	StatTotalAmount    = "totalAmount"
	StatTotalOfSquares = "totalOfSquares"
)

// Values for the dsType qualifier.
const (
	DsRate  = "rate"
	DsGauge = "gauge"
)

// Tag is a key/value pair attached to an Id.
type Tag struct {
	Key   string
	Value string
}

// Id identifies a meter: a name plus a set of tags, unique by key and
// sorted for stable lookup. Ids are immutable; the With* methods return
// derived copies.
type Id struct {
	name string
	tags []Tag
}

// NewId creates an id with the given name and tags. Duplicate tag keys keep
// the last value.
func NewId(name string, tags ...Tag) *Id {
	id := &Id{name: name}
	if len(tags) == 0 {
		return id
	}
	return id.WithTags(tags...)
}

// Name returns the id's name.
func (id *Id) Name() string {
	return id.name
}

// Tags returns a copy of the id's tags, sorted by key.
func (id *Id) Tags() []Tag {
	out := make([]Tag, len(id.tags))
	copy(out, id.tags)
	return out
}

// Tag returns the value for key and whether it is present.
func (id *Id) Tag(key string) (string, bool) {
	for _, t := range id.tags {
		if t.Key == key {
			return t.Value, true
		}
	}
	return "", false
}

// WithTag returns a copy of the id with key set to value, replacing any
// existing value for key.
func (id *Id) WithTag(key, value string) *Id {
	return id.WithTags(Tag{Key: key, Value: value})
}

// WithTags returns a copy of the id with the given tags merged in. Later
// values win, including over tags already on the id.
func (id *Id) WithTags(tags ...Tag) *Id {
	if len(tags) == 0 {
		return id
	}
	merged := make(map[string]string, len(id.tags)+len(tags))
	for _, t := range id.tags {
		merged[t.Key] = t.Value
	}
	for _, t := range tags {
		merged[t.Key] = t.Value
	}
	out := &Id{name: id.name, tags: make([]Tag, 0, len(merged))}
	for k, v := range merged {
		out.tags = append(out.tags, Tag{Key: k, Value: v})
	}
	sort.Slice(out.tags, func(i, j int) bool { return out.tags[i].Key < out.tags[j].Key })
	return out
}

// WithStat returns a copy of the id with the statistic qualifier set.
func (id *Id) WithStat(stat string) *Id {
	return id.WithTag(TagStatistic, stat)
}

// String renders the id as name:k=v,k=v with tags in sorted order.
func (id *Id) String() string {
	if len(id.tags) == 0 {
		return id.name
	}
	var b strings.Builder
	b.Grow(len(id.name) + len(id.tags)*16)
	b.WriteString(id.name)
	for i, t := range id.tags {
		if i == 0 {
			b.WriteByte(':')
		} else {
			b.WriteByte(',')
		}
		b.WriteString(t.Key)
		b.WriteByte('=')
		b.WriteString(t.Value)
	}
	return b.String()
}

// mapKey is the registry lookup key. Tags are sorted, so ids that differ
// only in tag order collide as intended.
func (id *Id) mapKey() string {
	return id.String()
}
