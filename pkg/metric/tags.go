package metric

// Tag is a single metric tag key/value pair.
type Tag struct {
	Key   string
	Value string
}

const (
	TagPath           = "path"
	TagMethod         = "method"
	TagHttpStatusCode = "http_status_code"

	ApiRequestCount   = "api_request_count"
	ApiRequestLatency = "api_request_latency"

	HitRate       = "in_memory_cache_hit_rate"
	ItemCount     = "in_memory_cache_item_count"
	EvacuateCount = "in_memory_cache_evacuate_count"
	ExpiryCount   = "in_memory_cache_expiry_count"
)

func NewTag(key, value string) Tag {
	return Tag{Key: key, Value: value}
}

// BuildTag flattens tags into the [k1, v1, k2, v2, ...] slice form the
// metric functions accept.
func BuildTag(tags ...Tag) []string {
	out := make([]string, 0, len(tags)*2)
	for _, t := range tags {
		out = append(out, t.Key, t.Value)
	}
	return out
}

// TagAsString renders a single tag in "key:value" form.
func TagAsString(key, value string) string {
	return key + ":" + value
}
