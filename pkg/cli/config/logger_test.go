package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/stackscout/pkg/cli/config"
	"github.com/secmon-lab/stackscout/pkg/utils/logging"
)

func TestLogger_Configure(t *testing.T) {
	orig := logging.Default()
	t.Cleanup(func() { logging.SetDefault(orig) })

	t.Run("writes JSON logs to a file with secrets masked", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "stackscout.log")
		closer, err := config.NewLoggerForTest("debug", "json", path).Configure()
		gt.NoError(t, err).Required()

		type credential struct {
			Token string
		}
		logging.Default().Debug("connected", "cred", credential{Token: "s3cr3t-value"}, "participant", "alice@example.com")
		closer()

		data, err := os.ReadFile(path)
		gt.NoError(t, err).Required()
		gt.String(t, string(data)).Contains(`"msg":"connected"`)
		gt.Bool(t, strings.Contains(string(data), "s3cr3t-value")).False()
		gt.Bool(t, strings.Contains(string(data), "alice@example.com")).False()
	})

	t.Run("console format", func(t *testing.T) {
		closer, err := config.NewLoggerForTest("info", "console", "stderr").Configure()
		gt.NoError(t, err).Required()
		closer()
	})

	t.Run("rejects unknown level", func(t *testing.T) {
		_, err := config.NewLoggerForTest("verbose", "json", "stderr").Configure()
		gt.Error(t, err).Is(config.ErrInvalidConfig)
	})

	t.Run("rejects unknown format", func(t *testing.T) {
		_, err := config.NewLoggerForTest("info", "xml", "stderr").Configure()
		gt.Error(t, err).Is(config.ErrInvalidConfig)
	})
}
