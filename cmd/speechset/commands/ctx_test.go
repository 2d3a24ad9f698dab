package commands

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/haivivi/speechset/cmd/speechset/internal/config"
)

// runCmd executes the root command with the given args, capturing stdout and stderr.
func runCmd(t *testing.T, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()

	oldStdout := os.Stdout
	oldStderr := os.Stderr

	rOut, wOut, _ := os.Pipe()
	rErr, wErr, _ := os.Pipe()
	os.Stdout = wOut
	os.Stderr = wErr

	rootCmd.SetArgs(args)
	err := rootCmd.Execute()

	wOut.Close()
	wErr.Close()
	os.Stdout = oldStdout
	os.Stderr = oldStderr

	var outBuf, errBuf bytes.Buffer
	outBuf.ReadFrom(rOut)
	errBuf.ReadFrom(rErr)

	stdout = outBuf.String()
	stderr = errBuf.String()
	if err != nil {
		exitCode = 1
		if stderr == "" {
			stderr = err.Error()
		}
	}

	resetFlags(rootCmd)
	return
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Changed = false
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			sv.Replace(nil)
			return
		}
		f.Value.Set(f.DefValue)
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// mustRun fails the test when the command exits non-zero.
func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, errOut, code := runCmd(t, args...)
	if code != 0 {
		t.Fatalf("%v: exit %d: %s", args, code, errOut)
	}
	return out
}

func setupConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(config.EnvDir, dir)
	return dir
}

// writeTone writes a 0.5 s, 16 kHz mono WAV holding a tone burst centered at
// burstAt seconds.
func writeTone(t *testing.T, dir, name string, freq, burstAt float64) string {
	t.Helper()
	const rate = 16000
	samples := make([]int, rate/2)
	for i := range samples {
		ts := float64(i) / rate
		env := math.Exp(-math.Pow((ts-burstAt)/0.03, 2))
		samples[i] = int(12000 * env * math.Sin(2*math.Pi*freq*ts))
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	enc := wav.NewEncoder(f, rate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: rate},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

// buildDataset records two "yes" and two "no" clips into a dataset file.
func buildDataset(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	ds := filepath.Join(dir, "words.ssds")
	mustRun(t, "add", ds, "yes",
		writeTone(t, dir, "yes1.wav", 700, 0.2),
		writeTone(t, dir, "yes2.wav", 700, 0.3))
	mustRun(t, "add", ds, "no",
		writeTone(t, dir, "no1.wav", 1500, 0.25),
		writeTone(t, dir, "no2.wav", 1500, 0.15))
	return ds
}

func decodeJSON(t *testing.T, s string, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(s), v); err != nil {
		t.Fatalf("decode %q: %v", s, err)
	}
}
