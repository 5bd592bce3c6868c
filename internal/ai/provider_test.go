package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type staticProvider struct {
	lastModel string
	lastTask  string
}

func (p *staticProvider) Name() string { return "static" }

func (p *staticProvider) Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error) {
	p.lastModel = model
	p.lastTask = taskType
	return []float32{1, 2, 3}, nil
}

func TestNewEmbedProviderLookup(t *testing.T) {
	Register("static", func(args interface{}) (IEmbedProvider, error) {
		return &staticProvider{}, nil
	})

	p, err := NewEmbedProvider("  Static ", nil)
	require.NoError(t, err)
	require.Equal(t, "static", p.Name())

	_, err = NewEmbedProvider("nonexistent", nil)
	require.Error(t, err)
	_, err = NewEmbedProvider("", nil)
	require.Error(t, err)
}

func TestBuiltinProvidersRegistered(t *testing.T) {
	for _, name := range []string{"openai", "gemini"} {
		require.NotNil(t, registry[name], name)
	}
}

func TestEmbedderBindsModel(t *testing.T) {
	p := &staticProvider{}
	e := NewEmbedder(p, "embed-3-small")
	require.Equal(t, "embed-3-small", e.ModelName())

	vec, err := e.Embed(context.Background(), "hello", TaskRetrievalQuery)
	require.NoError(t, err)
	require.Len(t, vec, 3)
	require.Equal(t, "embed-3-small", p.lastModel)
	require.Equal(t, TaskRetrievalQuery, p.lastTask)
}
