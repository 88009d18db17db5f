package errs

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKinds(t *testing.T) {
	err := Configurationf("std=%g must be > 0", -1.0)
	assert.True(t, IsConfiguration(err))
	assert.False(t, IsGeometry(err))
	assert.False(t, IsMapping(err))
	assert.Contains(t, err.Error(), "std=-1 must be > 0")

	err = Geometryf("image %dx%d != mask %dx%d", 3, 2, 2, 2)
	assert.True(t, IsGeometry(err))
	assert.False(t, IsConfiguration(err))

	err = Mappingf(42, "not in domain")
	assert.True(t, IsMapping(err))
	code, found := MappingCode(err)
	require.True(t, found)
	assert.Equal(t, 42, code)
}

func TestWrapped(t *testing.T) {
	err := errors.WithMessagef(Mappingf(99, "not in domain"), "while remapping sample #%d", 7)
	assert.True(t, IsMapping(err))
	code, found := MappingCode(err)
	require.True(t, found)
	assert.Equal(t, 99, code)
	assert.Contains(t, err.Error(), "sample #7")

	// Stack trace is available with "%+v".
	assert.Contains(t, fmt.Sprintf("%+v", err), "errs_test.go")

	_, found = MappingCode(errors.New("plain"))
	assert.False(t, found)
}
