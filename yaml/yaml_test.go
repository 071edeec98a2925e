package yaml

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestMergeFiles(t *testing.T) {
	tmpDir := t.TempDir()

	base := writeFile(t, tmpDir, "config.yaml", `
mailer:
  sender: "me@example.com"
  receivers: ["a@example.com", "b@example.com"]
  gmail_password_token: ""
main_schedule:
  break_when_found: true
`)
	overlay := writeFile(t, tmpDir, "credentials.yaml", `
mailer:
  gmail_password_token: "secret"
  receivers: ["c@example.com"]
`)

	merged, err := MergeFiles(base, overlay)
	require.NoError(t, err)

	mailer, ok := merged["mailer"].(map[string]interface{})
	require.True(t, ok, "nested maps should be normalized to map[string]interface{}")
	assert.Equal(t, "me@example.com", mailer["sender"])
	assert.Equal(t, "secret", mailer["gmail_password_token"])
	assert.Equal(t, []interface{}{"c@example.com"}, mailer["receivers"], "lists are replaced, not merged")

	schedule, ok := merged["main_schedule"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, schedule["break_when_found"])
}

func TestMergeFilesMissingOrEmptyOverlay(t *testing.T) {
	tmpDir := t.TempDir()
	base := writeFile(t, tmpDir, "config.yaml", "mailer:\n  sender: me@example.com\n")
	empty := writeFile(t, tmpDir, "empty.yaml", "")

	merged, err := MergeFiles(base, filepath.Join(tmpDir, "nonexistent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", merged["mailer"].(map[string]interface{})["sender"])

	merged, err = MergeFiles(base, empty)
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", merged["mailer"].(map[string]interface{})["sender"])

	merged, err = MergeFiles(base, "")
	require.NoError(t, err)
	assert.Len(t, merged, 1)
}

func TestMergeFilesErrors(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := MergeFiles(filepath.Join(tmpDir, "nonexistent.yaml"), "")
	assert.Error(t, err)

	bad := writeFile(t, tmpDir, "bad.yaml", "invalid: yaml: content:")
	_, err = MergeFiles(bad, "")
	assert.Error(t, err)

	good := writeFile(t, tmpDir, "good.yaml", "a: 1\n")
	_, err = MergeFiles(good, bad)
	assert.Error(t, err)
}

func TestMergeMapsDoesNotMutateInputs(t *testing.T) {
	dst := map[string]interface{}{"a": map[string]interface{}{"x": 1}}
	src := map[string]interface{}{"a": map[interface{}]interface{}{"y": 2}}

	merged := MergeMaps(dst, src)

	assert.Equal(t, map[string]interface{}{"x": 1, "y": 2}, merged["a"])
	assert.Equal(t, map[string]interface{}{"x": 1}, dst["a"])
}

func TestMergeMapsScalarOverMap(t *testing.T) {
	merged := MergeMaps(
		map[string]interface{}{"a": map[string]interface{}{"x": 1}},
		map[string]interface{}{"a": "flat"},
	)
	assert.Equal(t, "flat", merged["a"])
}

func TestDecode(t *testing.T) {
	var target struct {
		Name  string   `yaml:"name"`
		Items []string `yaml:"items"`
	}
	err := Decode(map[string]interface{}{"name": "n", "items": []interface{}{"a", "b"}}, &target)
	require.NoError(t, err)
	assert.Equal(t, "n", target.Name)
	assert.Equal(t, []string{"a", "b"}, target.Items)

	err = Decode(map[string]interface{}{"unknown": 1}, &target)
	assert.Error(t, err, "unknown keys are rejected")
}
