package indexer

type EventType string

const (
	Upsert EventType = "UPSERT"
	Delete EventType = "DELETE"
)

type Event struct {
	Data map[EventType][]Data
}

type Data struct {
	Screen    string
	Embedding string
	Version   int
	Id        string
	Payload   map[string]interface{}
	Vectors   []float32
}
