package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/roach88/msgir/internal/ir"
)

type compileResponse struct {
	Status string            `json:"status"`
	Data   CompilationResult `json:"data"`
	Error  *CLIError         `json:"error"`
}

func decodeCompile(t *testing.T, out string) compileResponse {
	t.Helper()
	var resp compileResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}

func TestCompileValidSchemas(t *testing.T) {
	out, err := execute(t, "compile", carDir)
	require.NoError(t, err)

	assert.Contains(t, out, "Compiled 2 message(s) (LittleEndian)")
	assert.Contains(t, out, "Car (id 1): 32 token(s)")
	assert.Contains(t, out, "Ping (id 2): 5 token(s)")
}

func TestCompileValidSchemasJSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "compile", carDir)
	require.NoError(t, err)

	resp := decodeCompile(t, out)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "LittleEndian", resp.Data.ByteOrder)
	assert.Equal(t, ir.IRVersion, resp.Data.IRVersion)
	require.Len(t, resp.Data.Messages, 2)

	car := resp.Data.Messages[0]
	assert.Equal(t, "Car", car.Name)
	assert.Len(t, car.Hash, 64)
	require.Len(t, car.Tokens, 32)

	// discount follows serialNumber(8) modelYear(2) available(1) engine(3)
	discount := car.Tokens[21]
	assert.Equal(t, "ENCODING", discount.Signal)
	assert.Equal(t, int32(14), discount.Offset)
	assert.Equal(t, "optional", discount.Constraints.Presence)
	assert.Equal(t, "int:-128", discount.Constraints.NullValue)

	// the hash covers exactly the emitted tokens
	seq, err := ir.SequenceFromViews(car.Tokens)
	require.NoError(t, err)
	assert.Equal(t, car.Hash, ir.MustSequenceHash(seq))
}

func TestCompileValidSchemasYAML(t *testing.T) {
	out, err := execute(t, "--format", "yaml", "compile", carDir)
	require.NoError(t, err)

	var resp struct {
		Status string `yaml:"status"`
		Data   struct {
			Messages []struct {
				Name string `yaml:"name"`
			} `yaml:"messages"`
		} `yaml:"data"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Messages, 2)
	assert.Equal(t, "Ping", resp.Data.Messages[1].Name)
}

func TestCompileWithoutDefaultNulls(t *testing.T) {
	cfg := writeConfig(t, "[passes]\ndefault_nulls = false\n")

	out, err := execute(t, "--config", cfg, "--format", "json", "compile", carDir)
	require.NoError(t, err)

	resp := decodeCompile(t, out)
	assert.Empty(t, resp.Data.Messages[0].Tokens[21].Constraints.NullValue)
}

func TestCompileConfigByteOrderIsDefaultOnly(t *testing.T) {
	cfg := writeConfig(t, "[schema]\nbyte_order = \"bigEndian\"\n")

	out, err := execute(t, "--config", cfg, "--format", "json", "compile", carDir)
	require.NoError(t, err)

	resp := decodeCompile(t, out)
	assert.Equal(t, "LittleEndian", resp.Data.ByteOrder, "car.cue declares its byte order")
}

func TestCompileOutputToFile(t *testing.T) {
	outputFile := filepath.Join(t.TempDir(), "compiled.json")

	out, err := execute(t, "compile", carDir, "--output", outputFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote token IR to "+outputFile)

	data, err := os.ReadFile(outputFile)
	require.NoError(t, err)

	var result CompilationResult
	require.NoError(t, json.Unmarshal(data, &result))
	require.Len(t, result.Messages, 2)
	assert.Equal(t, carDir, result.Source)
}

func TestCompileOutputToBadPath(t *testing.T) {
	out, err := execute(t, "compile", carDir, "-o", filepath.Join(t.TempDir(), "missing", "out.json"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "E007")
}

func TestCompileIsDeterministic(t *testing.T) {
	first, err := execute(t, "--format", "json", "compile", carDir)
	require.NoError(t, err)
	second, err := execute(t, "--format", "json", "compile", carDir)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCompileNonExistentDirectory(t *testing.T) {
	out, err := execute(t, "compile", "/nonexistent/directory/path")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNotFound)
	assert.Contains(t, out, "not found")
}

func TestCompileEmptyDirectory(t *testing.T) {
	out, err := execute(t, "compile", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeNoFiles)
	assert.Contains(t, out, "no CUE files found")
}

func TestCompileBrokenSchema(t *testing.T) {
	out, err := execute(t, "compile", brokenDir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeCompileFailed)
	assert.Contains(t, out, `unknown type "int128"`)
}

func TestCompileBrokenSchemaJSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "compile", brokenDir)
	require.Error(t, err)

	resp := decodeCompile(t, out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeCompileFailed, resp.Error.Code)
}

func TestCompileCommandDirect(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewCompileCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{carDir})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "Compiled 2 message(s)")
}
