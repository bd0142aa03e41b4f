package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitIntoChunks_ReconstructsWordSequence(t *testing.T) {
	text := "La zona nucleo comprende los arrecifes de coral y los pastos marinos adyacentes a la costa norte del area protegida"

	chunks := SplitIntoChunks(text, 30)

	require.NotEmpty(t, chunks)
	joined := strings.Join(chunks, " ")
	assert.Equal(t, strings.Join(strings.Fields(text), " "), joined)
}

func TestSplitIntoChunks_CollapsesInteriorWhitespace(t *testing.T) {
	chunks := SplitIntoChunks("uno   dos\t\ttres\n\ncuatro", 100)

	require.Len(t, chunks, 1)
	assert.Equal(t, "uno dos tres cuatro", chunks[0])
}

func TestSplitIntoChunks_RespectsCharacterBound(t *testing.T) {
	text := strings.Repeat("palabra ", 200)

	chunks := SplitIntoChunks(text, 50)

	require.Greater(t, len(chunks), 1)
	for i, chunk := range chunks {
		words := strings.Fields(chunk)
		if len(words) > 1 {
			assert.LessOrEqual(t, len(chunk), 50, "chunk %d exceeds the bound", i)
		}
	}
}

func TestSplitIntoChunks_OversizedWordEmittedAlone(t *testing.T) {
	long := strings.Repeat("x", 80)
	text := "corto " + long + " final"

	chunks := SplitIntoChunks(text, 20)

	require.Len(t, chunks, 3)
	assert.Equal(t, "corto", chunks[0])
	assert.Equal(t, long, chunks[1])
	assert.Equal(t, "final", chunks[2])
}

func TestSplitIntoChunks_EmptyInput(t *testing.T) {
	assert.Empty(t, SplitIntoChunks("", 1000))
	assert.Empty(t, SplitIntoChunks("   \n\t  ", 1000))
}

func TestSplitIntoChunks_PreservesOrder(t *testing.T) {
	text := "primero segundo tercero cuarto quinto sexto septimo octavo"

	chunks := SplitIntoChunks(text, 16)

	joined := strings.Join(chunks, " ")
	assert.Equal(t, text, joined)
	assert.True(t, strings.HasPrefix(chunks[0], "primero"))
	assert.True(t, strings.HasSuffix(chunks[len(chunks)-1], "octavo"))
}
