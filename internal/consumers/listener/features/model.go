package features

type Operation string

const (
	OperationAdd    Operation = "ADD"
	OperationDelete Operation = "DELETE"
)

// Event is one per-channel feature fragment emitted by the extraction
// pipeline. A sample's full vector is the concatenation of its fragments in
// the screen's configured channel order.
type Event struct {
	Screen       string            `json:"screen"`
	SampleId     string            `json:"sample_id"`
	Embedding    string            `json:"embedding"`
	Channel      string            `json:"channel"`
	Fragment     []float32         `json:"fragment"`
	ChannelCount int               `json:"channel_count"`
	Operation    Operation         `json:"operation"`
	Payload      map[string]string `json:"payload"`
	Environment  string            `json:"environment"`
}
