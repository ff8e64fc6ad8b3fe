package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoZeroFields(t *testing.T) {
	cfg := Default()

	for _, field := range visit(newVar(*cfg), "Config", false) {
		assert.Fail(t, "zero-value field", field)
	}
}

type variable struct {
	Type  reflect.Type
	Value reflect.Value
}

func newVar(a any) variable {
	return variable{reflect.TypeOf(a), reflect.ValueOf(a)}
}

func visit(a variable, name string, nullable bool) (fields []string) {
	if a.Type.Kind() == reflect.Struct {
		for field := range a.Value.NumField() {
			v1 := variable{a.Type.Field(field).Type, a.Value.Field(field)}
			fieldname := a.Type.Field(field).Name
			isNullable := a.Type.Field(field).Tag.Get("test") == "nullable"
			fields = append(fields, visit(v1, name+"."+fieldname, isNullable)...)
		}

		return fields
	}

	if a.Value.IsZero() && !nullable {
		return []string{name}
	}

	return nil
}

func TestReadMerge(t *testing.T) {
	defaults := Read{Length: 100, Period: time.Second}

	t.Run("inherit everything", func(t *testing.T) {
		require.Equal(t, Read{100, time.Second, 2 * time.Second}, Read{}.Merge(defaults))
	})

	t.Run("timeout follows overridden period", func(t *testing.T) {
		merged := Read{Period: 3 * time.Second}.Merge(defaults)
		require.Equal(t, Read{100, 3 * time.Second, 4 * time.Second}, merged)
	})

	t.Run("configured timeout with overridden period", func(t *testing.T) {
		configured := Read{Length: 100, Period: 15 * time.Second, Timeout: 16 * time.Second}

		merged := Read{Period: time.Minute}.Merge(configured)
		require.Equal(t, Read{100, time.Minute, time.Minute + time.Second}, merged)

		merged = Read{}.Merge(configured)
		require.Equal(t, configured, merged)
	})

	t.Run("explicit timeout", func(t *testing.T) {
		merged := Read{Length: 5, Timeout: time.Minute}.Merge(defaults)
		require.Equal(t, Read{5, time.Second, time.Minute}, merged)
	})
}

func TestFromYAML(t *testing.T) {
	t.Run("overlay", func(t *testing.T) {
		cfg, err := FromYAML([]byte(`
body:
  length: 1MB
  period: 2s
form:
  length: 1024
  flag_value: "true"
multipart:
  headers:
    timeout: 10s
  body:
    length: 16KiB
headers:
  server: exchange
  default:
    x-frame-options: DENY
`))
		require.NoError(t, err)
		require.Equal(t, 1_000_000, cfg.Body.Read.Length)
		require.Equal(t, 2*time.Second, cfg.Body.Read.Period)
		require.Equal(t, 1024, cfg.Form.Read.Length)
		require.Equal(t, 5*time.Second, cfg.Form.Read.Period)
		require.Equal(t, "true", cfg.Form.FlagValue)
		require.Equal(t, 10*time.Second, cfg.Multipart.Headers.Timeout)
		require.Equal(t, 16*1024, cfg.Multipart.Body.Length)
		require.Equal(t, "exchange", cfg.Headers.Server)
		require.Equal(t, "DENY", cfg.Headers.Default["x-frame-options"])
	})

	t.Run("empty document", func(t *testing.T) {
		cfg, err := FromYAML(nil)
		require.NoError(t, err)
		require.Equal(t, Default(), cfg)
	})

	t.Run("bad values", func(t *testing.T) {
		for _, doc := range []string{
			"body: {length: lots}",
			"body: {length: 0}",
			"form: {period: forever}",
			"multipart: {body: {timeout: -1s}}",
			"body: [1, 2]",
		} {
			_, err := FromYAML([]byte(doc))
			require.Error(t, err, doc)
		}
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("headers: {server: file}"), 0o600))
		cfg, err := FromFile(path)
		require.NoError(t, err)
		require.Equal(t, "file", cfg.Headers.Server)
	})
}
