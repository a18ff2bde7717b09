package mysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpen_EmptyDSN(t *testing.T) {
	_, err := Open("", 0, 0, 0)
	assert.ErrorIs(t, err, ErrNoDSN)
}
