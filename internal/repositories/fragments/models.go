package fragments

type Query struct {
	SampleId string `json:"sample_id"`
}

// FragmentColumn names the table column holding one channel's fragment.
func FragmentColumn(channel string) string {
	return FragmentPrefix + channel
}
