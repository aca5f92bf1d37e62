package samples

// ScatterPoint is one sample in the screen's embedding scatter plot.
type ScatterPoint struct {
	Id   string  `json:"id"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Info string  `json:"info"`
	Gene string  `json:"gene,omitempty"`
	URL  string  `json:"url"`
}

type ScatterResponse struct {
	Screen string         `json:"screen"`
	State  string         `json:"state"`
	Points []ScatterPoint `json:"points"`
}

type SelectionRequest struct {
	SampleIds []string `json:"sample_ids"`
}

// MontageTile places one selected sample's image in the unit square, so a
// client can lay the montage out at any pixel size.
type MontageTile struct {
	Id   string  `json:"id"`
	URL  string  `json:"url"`
	Row  int     `json:"row"`
	Col  int     `json:"col"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Size float64 `json:"size"`
}

type SelectionResponse struct {
	Columns   []string      `json:"columns"`
	Rows      [][]string    `json:"rows"`
	Tiles     []MontageTile `json:"tiles"`
	Truncated bool          `json:"truncated"`
}
