package embeddings

import (
	"math"
	"reflect"
	"testing"
)

func TestEmbedIsDeterministic(t *testing.T) {
	content := "Watched 10.0 second video, analyzing 20 frames."

	first := Embed(content)
	second := Embed(content)

	if !reflect.DeepEqual(first, second) {
		t.Fatal("identical content produced different embeddings")
	}
	if len(first) != Dimensions {
		t.Fatalf("embedding has %d dimensions, want %d", len(first), Dimensions)
	}
}

func TestEmbedIsNormalized(t *testing.T) {
	vec := Embed("high motion content with average intensity 0.42")

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if math.Abs(math.Sqrt(norm)-1) > 1e-5 {
		t.Fatalf("embedding norm = %v, want 1", math.Sqrt(norm))
	}
}

func TestEmbedEmptyContentIsZero(t *testing.T) {
	vec := Embed("")
	for i, v := range vec {
		if v != 0 {
			t.Fatalf("component %d = %v, want 0 for empty content", i, v)
		}
	}
}

func TestDifferentContentDiffers(t *testing.T) {
	a := Embed("dark scene with black tones and visible text")
	b := Embed("bright scene with red tones and significant movement")

	if reflect.DeepEqual(a, b) {
		t.Fatal("unrelated summaries produced identical embeddings")
	}
}

func TestServiceMatchesDirectEmbedding(t *testing.T) {
	svc := NewService(2)
	defer svc.Close()

	content := "moderately lit scene, with mixed tones"
	result := <-svc.GetEmbedding(content)
	if result.Error != nil {
		t.Fatalf("unexpected error: %v", result.Error)
	}
	if !reflect.DeepEqual(result.Embedding, Embed(content)) {
		t.Fatal("service embedding differs from direct embedding")
	}

	// Second request hits the cache and must agree.
	cached := <-svc.GetEmbedding(content)
	if !reflect.DeepEqual(cached.Embedding, result.Embedding) {
		t.Fatal("cached embedding differs from first result")
	}
}
