package similar

func validateSimilarRequest(request *SimilarRequest) (bool, string) {
	sampleIdsLen := len(request.SampleIds)
	embeddingsLen := len(request.Embeddings)

	if len(request.Embedding) == 0 {
		return false, "embedding is required"
	}

	if request.Limit <= 0 {
		return false, "limit is required"
	}

	if sampleIdsLen == 0 && embeddingsLen == 0 {
		return false, "sample_ids or embeddings is required"
	}

	if sampleIdsLen > 0 && embeddingsLen > 0 {
		return false, "both sample_ids and embeddings are present, only one is required"
	}

	return true, ""
}
