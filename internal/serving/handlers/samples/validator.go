package samples

const maxSelectionSize = 1000

func validateSelectionRequest(request *SelectionRequest) (bool, string) {
	if len(request.SampleIds) == 0 {
		return false, "sample_ids is required"
	}
	if len(request.SampleIds) > maxSelectionSize {
		return false, "too many sample_ids"
	}
	return true, ""
}
