package similar

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"strings"

	"github.com/microscopium/microscopium/internal/repositories"
)

const (
	SimilarSamplePrefix = "ss"
	CacheKeySeparator   = ":"
	CacheVersion        = "V1"
)

func GetCacheKeysForEmbeddings(request StructRequest) map[string]repositories.CacheStruct {
	cacheKeys := make(map[string]repositories.CacheStruct, len(request.Embeddings))
	for index, embedding := range request.Embeddings {
		key := buildDetailedCacheKey(SimilarSamplePrefix, request.Screen, request.Embedding,
			getHashForEmbedding(embedding), getHash(request.Payload))
		if cacheStruct, ok := cacheKeys[key]; ok {
			cacheStruct.Index = append(cacheStruct.Index, index)
			cacheKeys[key] = cacheStruct
		} else {
			cacheKeys[key] = repositories.CacheStruct{
				Index:     []int{index},
				Embedding: embedding,
			}
		}
	}
	return cacheKeys
}

func GetCacheKeysForSampleIds(request StructRequest) map[string]repositories.CacheStruct {
	cacheKeys := make(map[string]repositories.CacheStruct, len(request.SampleIds))
	for index, id := range request.SampleIds {
		key := buildDetailedCacheKey(SimilarSamplePrefix, request.Screen, request.Embedding,
			id, getHash(request.Payload))
		if cacheStruct, ok := cacheKeys[key]; ok {
			cacheStruct.Index = append(cacheStruct.Index, index)
			cacheKeys[key] = cacheStruct
		} else {
			cacheKeys[key] = repositories.CacheStruct{
				Index:    []int{index},
				SampleId: id,
			}
		}
	}
	return cacheKeys
}

func getHashForEmbedding(embedding []float32) string {
	if len(embedding) == 0 {
		return "e"
	}
	hasher := fnv.New64a()
	buf := make([]byte, 4)
	for _, v := range embedding {
		binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
		hasher.Write(buf)
	}
	return hashToHexString(hasher.Sum64())
}

func getHash(values []string) string {
	if len(values) == 0 {
		return "e"
	}
	hasher := fnv.New64a()
	for _, s := range values {
		hasher.Write([]byte(s))
	}
	return hashToHexString(hasher.Sum64())
}

func hashToHexString(hash uint64) string {
	const hexChars = "0123456789abcdef"
	result := make([]byte, 16)
	for i := 0; i < 8; i++ {
		b := byte(hash >> (8 * (7 - i)))
		result[i*2] = hexChars[b>>4]
		result[i*2+1] = hexChars[b&0x0f]
	}
	return string(result)
}

func buildDetailedCacheKey(prefix, screen, embedding, id, payload string) string {
	var b strings.Builder
	b.Grow(len(prefix) + len(screen) + len(embedding) + len(id) + len(payload) + len(CacheVersion) + 5)
	b.WriteString(prefix)
	b.WriteString(CacheKeySeparator)
	b.WriteString(screen)
	b.WriteString(CacheKeySeparator)
	b.WriteString(embedding)
	b.WriteString(CacheKeySeparator)
	b.WriteString(id)
	b.WriteString(CacheKeySeparator)
	b.WriteString(payload)
	b.WriteString(CacheKeySeparator)
	b.WriteString(CacheVersion)
	return b.String()
}
