// File: ring/format_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package ring

import (
	"go/format"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Platform files outside the current GOOS are never compiled here, so
// their layout is checked directly.
func TestSourcesAreFormatted(t *testing.T) {
	files, err := filepath.Glob("*_other.go")
	require.NoError(t, err)
	require.NotEmpty(t, files)
	for _, name := range files {
		src, err := os.ReadFile(name)
		require.NoError(t, err)
		got, err := format.Source(src)
		require.NoError(t, err, name)
		assert.Equal(t, string(got), string(src), "%s is not gofmt-formatted", name)
	}
}
