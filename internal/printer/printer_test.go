package printer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Error prints the full formatted text to stderr itself; the returned error
// carries only the title so Cobra's own reporting stays terse.
func TestError(t *testing.T) {
	t.Run("returns error with title", func(t *testing.T) {
		err := Error("config not found", "No dutybot.yml in the current directory.", nil)
		require.Error(t, err)
		require.Equal(t, "config not found", err.Error())
	})

	t.Run("single suggestion", func(t *testing.T) {
		err := Error("config not found", "", []string{"Run with --config pointing at your file"})
		require.Error(t, err)
		require.Equal(t, "config not found", err.Error())
	})

	t.Run("multiple suggestions", func(t *testing.T) {
		err := Error("snapshot store unavailable", "Redis is not reachable.", []string{
			"Set REDIS_URL to a reachable instance",
			"Configure a snapshots directory instead",
		})
		require.Error(t, err)
		require.Equal(t, "snapshot store unavailable", err.Error())
	})
}
