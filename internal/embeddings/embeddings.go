// Package embeddings turns visual summaries into fixed-size vectors for
// similarity search. The embedding is a feature-hashed bag of words:
// deterministic, dependency-free, and good enough to rank watched videos
// by how alike their summaries read.
package embeddings

import (
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"sync"
)

// Dimensions is the fixed embedding width. The Postgres schema's vector
// column must match.
const Dimensions = 64

// Result is the outcome of one embedding request.
type Result struct {
	Content   string
	Embedding []float32
	Error     error
}

type work struct {
	content string
	result  chan<- Result
}

// Service generates embeddings through a worker pool with a cache. The
// pool shape keeps callers non-blocking even when many watch calls finish
// at once.
type Service struct {
	numWorkers int
	workQueue  chan work
	cache      sync.Map
	wg         sync.WaitGroup
}

// NewService starts numWorkers embedding workers (default 4).
func NewService(numWorkers int) *Service {
	if numWorkers <= 0 {
		numWorkers = 4
	}

	s := &Service{
		numWorkers: numWorkers,
		workQueue:  make(chan work, 100),
	}
	s.startWorkers()
	return s
}

func (s *Service) startWorkers() {
	for i := 0; i < s.numWorkers; i++ {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for w := range s.workQueue {
				if cached, ok := s.cache.Load(w.content); ok {
					if embedding, valid := cached.([]float32); valid {
						w.result <- Result{Content: w.content, Embedding: embedding}
						continue
					}
				}

				embedding := Embed(w.content)
				s.cache.Store(w.content, embedding)
				w.result <- Result{Content: w.content, Embedding: embedding}
			}
		}()
	}
}

// GetEmbedding requests an embedding asynchronously. A full queue fails
// fast instead of blocking the caller.
func (s *Service) GetEmbedding(content string) <-chan Result {
	resultChan := make(chan Result, 1)

	select {
	case s.workQueue <- work{content: content, result: resultChan}:
	default:
		resultChan <- Result{
			Content: content,
			Error:   fmt.Errorf("embedding queue is full, try again later"),
		}
		close(resultChan)
	}

	return resultChan
}

// Embed computes the feature-hashed embedding synchronously. Identical
// content always yields an identical vector.
func Embed(content string) []float32 {
	vec := make([]float32, Dimensions)

	for _, token := range tokenize(content) {
		h := fnv.New32a()
		h.Write([]byte(token))
		sum := h.Sum32()

		idx := int(sum % Dimensions)
		// The next hash bit picks the sign so common words do not all
		// pile into positive components.
		if (sum>>16)&1 == 0 {
			vec[idx]++
		} else {
			vec[idx]--
		}
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec
}

func tokenize(content string) []string {
	fields := strings.FieldsFunc(strings.ToLower(content), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
	tokens := fields[:0]
	for _, f := range fields {
		if len(f) > 1 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// Close shuts the pool down and waits for in-flight work.
func (s *Service) Close() {
	if s.workQueue != nil {
		close(s.workQueue)
	}
	s.wg.Wait()
}
