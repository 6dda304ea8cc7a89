// internal/storage/storage_test.go
package storage_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/falconvolei/quadro/internal/storage"
	"github.com/stretchr/testify/assert"
)

func TestErrNotFound_Wrapped(t *testing.T) {
	err := fmt.Errorf("get players: %w", storage.ErrNotFound)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}
