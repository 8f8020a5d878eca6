package validate

import (
	"errors"
	"testing"

	"github.com/go-market-triggers/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStruct_ReportsJSONNames(t *testing.T) {
	err := Struct(domain.VerifyCodeRequest{Code: "12a"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
	assert.Contains(t, err.Error(), "field 'code'")
}

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(domain.VerifyCodeRequest{Code: "0042"}))
}
