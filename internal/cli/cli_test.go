package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/darkcfg/internal/network"
	"github.com/specialistvlad/darkcfg/internal/report"
)

// env returns a LookupFunc over a fixed map and points the dotenv file at a
// path that does not exist unless the map says otherwise.
func env(t *testing.T, values map[string]string) LookupFunc {
	t.Helper()
	if _, ok := values[EnvKey("env-file")]; !ok {
		values[EnvKey("env-file")] = filepath.Join(t.TempDir(), "absent.env")
	}
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestParseDefaults(t *testing.T) {
	cfg, exit, err := ParseEnv([]string{"yolov4.cfg"}, &bytes.Buffer{}, env(t, map[string]string{}))
	require.NoError(t, err)
	require.False(t, exit)

	assert.Equal(t, "yolov4.cfg", cfg.Path)
	assert.Equal(t, report.FormatTable, cfg.Format)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, network.NoGPU, cfg.GPU)
	assert.Zero(t, cfg.Batch)
	assert.False(t, cfg.Train)
	assert.False(t, cfg.ReceptiveField)
}

func TestParseFlags(t *testing.T) {
	args := []string{
		"-format", "yaml", "-log-level", "DEBUG", "-log-format", "json", "-log-file", "run.log",
		"-gpu", "0", "-batch", "2", "-time-steps", "3", "-train", "-receptive-field", "-no-color",
		"nets/",
	}
	cfg, exit, err := ParseEnv(args, &bytes.Buffer{}, env(t, map[string]string{}))
	require.NoError(t, err)
	require.False(t, exit)

	assert.Equal(t, "nets/", cfg.Path)
	assert.Equal(t, report.FormatYAML, cfg.Format)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "run.log", cfg.LogFile)
	assert.Equal(t, 0, cfg.GPU)
	assert.Equal(t, 2, cfg.Batch)
	assert.Equal(t, 3, cfg.TimeSteps)
	assert.True(t, cfg.Train)
	assert.True(t, cfg.ReceptiveField)
	assert.True(t, cfg.NoColor)
}

func TestParsePathPrecedence(t *testing.T) {
	testCases := []struct {
		name string
		args []string
		want string
	}{
		{"positional", []string{"a.cfg"}, "a.cfg"},
		{"shorthand", []string{"-c", "b.cfg"}, "b.cfg"},
		{"long flag wins", []string{"-config", "c.cfg", "-c", "b.cfg", "a.cfg"}, "c.cfg"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, _, err := ParseEnv(tc.args, &bytes.Buffer{}, env(t, map[string]string{}))
			require.NoError(t, err)
			assert.Equal(t, tc.want, cfg.Path)
		})
	}
}

func TestParseEnvironment(t *testing.T) {
	t.Run("environment supplies defaults", func(t *testing.T) {
		cfg, _, err := ParseEnv([]string{"-batch", "8"}, &bytes.Buffer{}, env(t, map[string]string{
			"DARKCFG_CONFIG":          "env.cfg",
			"DARKCFG_FORMAT":          "yaml",
			"DARKCFG_BATCH":           "4",
			"DARKCFG_TRAIN":           "true",
			"DARKCFG_RECEPTIVE_FIELD": "1",
		}))
		require.NoError(t, err)
		assert.Equal(t, "env.cfg", cfg.Path)
		assert.Equal(t, report.FormatYAML, cfg.Format)
		assert.Equal(t, 8, cfg.Batch, "flags override the environment")
		assert.True(t, cfg.Train)
		assert.True(t, cfg.ReceptiveField)
	})

	t.Run("dotenv file sits below the environment", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "darkcfg.env")
		require.NoError(t, os.WriteFile(path, []byte("DARKCFG_LOG_LEVEL=warn\nDARKCFG_GPU=2\n"), 0o600))

		cfg, _, err := ParseEnv([]string{"-env-file", path, "a.cfg"}, &bytes.Buffer{}, env(t, map[string]string{
			"DARKCFG_GPU": "1",
		}))
		require.NoError(t, err)
		assert.Equal(t, "warn", cfg.LogLevel)
		assert.Equal(t, 1, cfg.GPU)
	})

	t.Run("dotenv path from environment", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "darkcfg.env")
		require.NoError(t, os.WriteFile(path, []byte("DARKCFG_FORMAT=yaml\n"), 0o600))

		cfg, _, err := ParseEnv([]string{"a.cfg"}, &bytes.Buffer{}, env(t, map[string]string{
			"DARKCFG_ENV_FILE": path,
		}))
		require.NoError(t, err)
		assert.Equal(t, report.FormatYAML, cfg.Format)
	})
}

func TestParseExit(t *testing.T) {
	t.Run("help", func(t *testing.T) {
		out := &bytes.Buffer{}
		cfg, exit, err := ParseEnv([]string{"-h"}, out, env(t, map[string]string{}))
		require.NoError(t, err)
		assert.True(t, exit)
		assert.Nil(t, cfg)
		assert.Contains(t, out.String(), "Usage:")
		assert.Contains(t, out.String(), "DARKCFG_")
	})

	t.Run("no path prints usage", func(t *testing.T) {
		out := &bytes.Buffer{}
		_, exit, err := ParseEnv(nil, out, env(t, map[string]string{}))
		require.NoError(t, err)
		assert.True(t, exit)
		assert.Contains(t, out.String(), "CFG_PATH")
	})
}

func TestParseErrors(t *testing.T) {
	testCases := []struct {
		name string
		args []string
		env  map[string]string
		want string
	}{
		{"unknown flag", []string{"-bogus"}, map[string]string{}, "flag provided but not defined"},
		{"bad format", []string{"-format", "xml", "a.cfg"}, map[string]string{}, "unknown report format"},
		{"bad log level", []string{"-log-level", "trace", "a.cfg"}, map[string]string{}, "invalid log level"},
		{"bad gpu", []string{"-gpu", "-3", "a.cfg"}, map[string]string{}, "invalid GPU index"},
		{"bad env integer", []string{"a.cfg"}, map[string]string{"DARKCFG_BATCH": "many"}, "DARKCFG_BATCH"},
		{"bad env boolean", []string{"a.cfg"}, map[string]string{"DARKCFG_TRAIN": "maybe"}, "DARKCFG_TRAIN"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, exit, err := ParseEnv(tc.args, &bytes.Buffer{}, env(t, tc.env))
			require.Error(t, err)
			assert.False(t, exit)

			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.want)
		})
	}

	t.Run("malformed dotenv file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.env")
		require.NoError(t, os.WriteFile(path, []byte("DARKCFG_FORMAT='yaml\n"), 0o600))
		_, _, err := ParseEnv([]string{"a.cfg"}, &bytes.Buffer{}, env(t, map[string]string{"DARKCFG_ENV_FILE": path}))

		var exitErr *ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 2, exitErr.Code)
		assert.Contains(t, exitErr.Message, "failed to read env file")
	})
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "DARKCFG_LOG_LEVEL", EnvKey("log-level"))
	assert.Equal(t, "DARKCFG_GPU", EnvKey("gpu"))
}
