package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampChunkSize(t *testing.T) {
	assert.Equal(t, DefaultChunkSize, ClampChunkSize(0))
	assert.Equal(t, MinChunkSize, ClampChunkSize(100))
	assert.Equal(t, MinChunkSize, ClampChunkSize(-50))
	assert.Equal(t, MaxChunkSize, ClampChunkSize(5000))
	assert.Equal(t, 1200, ClampChunkSize(1200))
	assert.Equal(t, MinChunkSize, ClampChunkSize(MinChunkSize))
	assert.Equal(t, MaxChunkSize, ClampChunkSize(MaxChunkSize))
}

func TestZoneEqual(t *testing.T) {
	base := Zone{Name: "Zona Nucleo", Limits: "23.5N 109.4W", Regulations: []string{"No pesca", "No anclaje"}}

	assert.True(t, base.Equal(Zone{Name: "Zona Nucleo", Limits: "23.5N 109.4W", Regulations: []string{"No pesca", "No anclaje"}}))

	assert.False(t, base.Equal(Zone{Name: "Zona nucleo", Limits: "23.5N 109.4W", Regulations: []string{"No pesca", "No anclaje"}}))
	assert.False(t, base.Equal(Zone{Name: "Zona Nucleo", Limits: "23.5N 109.4W", Regulations: []string{"No anclaje", "No pesca"}}))
	assert.False(t, base.Equal(Zone{Name: "Zona Nucleo", Limits: "23.5N 109.4W", Regulations: []string{"No pesca"}}))
}
