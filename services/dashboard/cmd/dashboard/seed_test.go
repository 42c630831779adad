package main

import (
	"bytes"
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/ReviewInsights/pkg/logger"
	"github.com/utafrali/ReviewInsights/services/dashboard/internal/client"
)

func TestSample_Deterministic(t *testing.T) {
	a := rand.New(rand.NewSource(42))
	b := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		assert.Equal(t, sample(a), sample(b))
	}
}

func TestSample_Fields(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		in := sample(rng)
		assert.Contains(t, seedProducts, in.ProductName)
		assert.Contains(t, seedSources, in.Source)
		assert.Contains(t, seedTexts, in.Text)
		if in.Rating != nil {
			assert.GreaterOrEqual(t, *in.Rating, 1.0)
			assert.LessOrEqual(t, *in.Rating, 5.0)
		}
	}
}

func TestSeedCommand(t *testing.T) {
	api := &fakeAPI{}
	root, out := newTestRoot(t, api)

	require.NoError(t, execute(root, "seed", "--count", "5"))

	posts, stored, _ := api.stats()
	assert.Equal(t, 5, posts)
	assert.Equal(t, 5, stored)
	assert.Contains(t, out.String(), "#5")
	assert.Contains(t, out.String(), "Done: 5 reviews submitted")
}

func TestSeedCommand_InvalidCount(t *testing.T) {
	api := &fakeAPI{}
	root, _ := newTestRoot(t, api)

	err := execute(root, "seed", "--count", "0")

	require.Error(t, err)
	posts, _, _ := api.stats()
	assert.Equal(t, 0, posts)
}

func TestSeed_StopsOnFailure(t *testing.T) {
	api := &fakeAPI{failAt: 3}
	srv := newServer(t, api)
	c := client.New(srv, time.Second, logger.NewDiscard())

	n, err := seed(context.Background(), c, 10, rand.New(rand.NewSource(1)), &bytes.Buffer{})

	require.Error(t, err)
	assert.Equal(t, 2, n)
	posts, _, _ := api.stats()
	assert.Equal(t, 3, posts)
	assert.Contains(t, err.Error(), "review 3 of 10")
	assert.Contains(t, err.Error(), "failed to analyze review sentiment")
}
