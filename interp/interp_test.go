// Copyright (c) 2017, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

package interp

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/quash-sh/quash/expand"
	"github.com/quash-sh/quash/internal"
)

// testProg is the test binary itself, which acts as a helper program when
// started with internal.HelperEnv set. Tests reach it as $PROG.
var testProg string

func TestMain(m *testing.M) {
	testProg = internal.TestMainSetup()
	os.Exit(m.Run())
}

// testEnv is a small environment without PATH, so that only the helper
// program and builtins can be run.
func testEnv(pairs ...string) expand.WriteEnviron {
	return expand.ListEnviron(append([]string{
		internal.HelperEnv + "=1",
		"PROG=" + testProg,
		"EMPTY=",
	}, pairs...)...)
}

// runLines runs each line of src in order. Errors from Run are written to
// the output as well, after the line's own output.
func runLines(tb testing.TB, r *Runner, out *internal.ConcBuffer, src string) {
	tb.Helper()
	ctx := context.Background()
	for _, line := range strings.Split(src, "\n") {
		if err := r.Run(ctx, line); err != nil {
			fmt.Fprintf(out, "%v\n", err)
		}
	}
}

type runTest struct {
	in, want string
}

var runTests = []runTest{
	// empty lines
	{"", ""},
	{" \t ", ""},
	{"\n\n", ""},

	// echo and substitution
	{"echo", "\n"},
	{"echo foo", "foo\n"},
	{"echo foo   bar\tbaz", "foo bar baz\n"},
	{"echo $UNSET_VAR", "\n"},
	{"echo a $UNSET b $EMPTY c", "a b c\n"},
	{"echo $PROG_", "\n"},
	{"echo a$EMPTY", "a$EMPTY\n"},
	{"echo >", ">\n"},
	{"echo a &", "a\n"},
	{"$UNSET echo hi", ""},
	{"$EMPTY", ""},

	// setenv and env
	{"setenv FOO=bar\necho $FOO", "bar\n"},
	{"setenv FOO=bar\nsetenv FOO=baz\necho $FOO", "baz\n"},
	{"setenv FOO=a=b\nenv FOO", "a=b\n"},
	{"setenv FOO=\nenv FOO\necho x$FOO", "\nx$FOO\n"},
	{"env UNSET_VAR", ""},
	{"env EMPTY", "\n"},
	{"setenv FOO", "quash: setenv usage: setenv VAR=value\nexit status 2\n"},
	{"setenv =x", "quash: setenv: invalid variable name: \"\"\nexit status 1\n"},
	{"setenv CMD=echo\n$CMD via var", "via var\n"},
	{"setenv P=|\n$PROG args a $P $PROG cat", "a\n"},

	// exit
	{"exit\necho foo", ""},
	{"quit\necho foo", ""},
	{"exit 3", ""},

	// external programs
	{"$PROG args foo bar", "foo\nbar\n"},
	{"$PROG args $UNSET x", "\nx\n"},
	{"$PROG exit 0", ""},
	{"$PROG exit 3", "exit status 3\n"},
	{"$PROG stderr oops", "oops\n"},
	{
		"nonexistent_quash_cmd",
		"quash: nonexistent_quash_cmd: command not found\nAn error occurred.\nexit status 127\n",
	},
	{
		"./nonexistent_quash_cmd arg",
		"quash: ./nonexistent_quash_cmd: no such file or directory\nAn error occurred.\nexit status 127\n",
	},
	{"$PROG sleep 10ms", "slept\n"},

	// redirections
	{"echo hi > out.txt\n$PROG cat < out.txt", "hi\n"},
	{"$PROG args a b > out.txt\n$PROG cat < out.txt", "a\nb\n"},
	{"echo first > out.txt\necho second > out.txt\n$PROG cat < out.txt", "second\n"},
	{"setenv F=out.txt\necho via var > $F\n$PROG cat < $F", "via var\n"},
	{"> out.txt\n$PROG cat < out.txt", ""},

	// pipelines
	{"$PROG args foo bar | $PROG cat", "foo\nbar\n"},
	{"$PROG args x | $PROG exit 4", "exit status 4\n"},
	{"$PROG exit 4 | $PROG args x", "x\n"},
	{"ls |", "quash: pipe requires two valid commands\nexit status 2\n"},
	{"| wc", "quash: pipe requires two valid commands\nexit status 2\n"},
	{"a | b | c", "quash: pipelines of more than two commands are not supported\nexit status 2\n"},
	{
		"echo hi | $PROG cat",
		"quash: echo: command not found\nAn error occurred.\n",
	},
	{
		"$PROG args hi | nonexistent_quash_cmd",
		"quash: nonexistent_quash_cmd: command not found\nAn error occurred.\nexit status 127\n",
	},
}

func TestRunnerRun(t *testing.T) {
	t.Parallel()
	for i, tc := range runTests {
		tc := tc
		t.Run(fmt.Sprintf("%03d", i), func(t *testing.T) {
			t.Parallel()
			var cb internal.ConcBuffer
			r, err := New(
				Env(testEnv()),
				Dir(t.TempDir()),
				StdIO(nil, &cb, &cb),
			)
			qt.Assert(t, err, qt.IsNil)
			runLines(t, r, &cb, tc.in)
			qt.Assert(t, cb.String(), qt.Equals, tc.want, qt.Commentf("input: %q", tc.in))
		})
	}
}

func newTestRunner(tb testing.TB, opts ...RunnerOption) (*Runner, *internal.ConcBuffer) {
	tb.Helper()
	cb := new(internal.ConcBuffer)
	opts = append([]RunnerOption{
		Env(testEnv()),
		Dir(tb.TempDir()),
		StdIO(nil, cb, cb),
	}, opts...)
	r, err := New(opts...)
	qt.Assert(tb, err, qt.IsNil)
	return r, cb
}

func TestCd(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	r, cb := newTestRunner(t)
	start := r.Dir
	c.Assert(os.Mkdir(filepath.Join(start, "sub"), 0o755), qt.IsNil)
	c.Assert(os.WriteFile(filepath.Join(start, "file"), nil, 0o644), qt.IsNil)

	runLines(t, r, cb, "cd sub\npwd")
	c.Assert(cb.String(), qt.Equals, filepath.Join(start, "sub")+"\n")
	c.Assert(r.Dir, qt.Equals, filepath.Join(start, "sub"))

	cb.Reset()
	runLines(t, r, cb, "cd ..\npwd")
	c.Assert(cb.String(), qt.Equals, start+"\n")

	cb.Reset()
	runLines(t, r, cb, "cd nonexistent_dir\npwd")
	c.Assert(cb.String(), qt.Equals, fmt.Sprintf(
		"quash: cd: %s: no such file or directory\nexit status 1\n%s\n",
		filepath.Join(start, "nonexistent_dir"), start))

	cb.Reset()
	runLines(t, r, cb, "cd file")
	c.Assert(cb.String(), qt.Equals, fmt.Sprintf(
		"quash: cd: %s: not a directory\nexit status 1\n", filepath.Join(start, "file")))
	c.Assert(r.Dir, qt.Equals, start)
}

func TestCdHome(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	home := t.TempDir()
	r, cb := newTestRunner(t, Env(testEnv("HOME="+home)))
	runLines(t, r, cb, "cd\npwd")
	c.Assert(cb.String(), qt.Equals, home+"\n")

	r, cb = newTestRunner(t)
	runLines(t, r, cb, "cd\npwd")
	c.Assert(cb.String(), qt.Equals, "/\n")
}

func TestCdEmpty(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	r, cb := newTestRunner(t, Env(testEnv("HOME=")))
	start := r.Dir
	want := "quash: cd: empty directory name: file does not exist\nexit status 1\n"

	runLines(t, r, cb, "cd $UNSET_VAR")
	c.Assert(cb.String(), qt.Equals, want)
	c.Assert(r.Dir, qt.Equals, start)

	// HOME is set, even if empty, so "/" is not used.
	cb.Reset()
	runLines(t, r, cb, "cd")
	c.Assert(cb.String(), qt.Equals, want)
	c.Assert(r.Dir, qt.Equals, start)
}

func TestCdAffectsPrograms(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	r, cb := newTestRunner(t)
	sub := filepath.Join(r.Dir, "sub")
	c.Assert(os.Mkdir(sub, 0o755), qt.IsNil)
	c.Assert(os.WriteFile(filepath.Join(sub, "in.txt"), []byte("inside\n"), 0o644), qt.IsNil)

	runLines(t, r, cb, "cd sub\n$PROG cat < in.txt\n$PROG args x > out.txt")
	c.Assert(cb.String(), qt.Equals, "inside\n")
	data, err := os.ReadFile(filepath.Join(sub, "out.txt"))
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, "x\n")
}

func TestEnvBuiltin(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	r, cb := newTestRunner(t, Env(expand.ListEnviron("B=2", "A=1")))
	runLines(t, r, cb, "env\nsetenv C=3\nsetenv A=x\nsetenv")
	c.Assert(cb.String(), qt.Equals, "B=2\nA=1\nB=2\nA=x\nC=3\n")
}

func TestEnvInherited(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	r, cb := newTestRunner(t)
	runLines(t, r, cb, "setenv GREETING=hello\n$PROG getenv GREETING")
	c.Assert(cb.String(), qt.Equals, "hello\n")
	c.Assert(r.Env.Get("GREETING"), qt.Equals, expand.StringVar("hello"))
}

func TestRedirectFirstOnly(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	r, cb := newTestRunner(t)
	in := filepath.Join(r.Dir, "in.txt")
	c.Assert(os.WriteFile(in, []byte("data\n"), 0o644), qt.IsNil)

	// Parsing stops at "<", so "> copy.txt" is dropped entirely.
	runLines(t, r, cb, "$PROG cat < in.txt > copy.txt")
	c.Assert(cb.String(), qt.Equals, "data\n")
	_, err := os.Stat(filepath.Join(r.Dir, "copy.txt"))
	c.Assert(err, qt.ErrorIs, os.ErrNotExist)

	// A dangling operator is just an argument.
	cb.Reset()
	runLines(t, r, cb, "$PROG args in.txt <")
	c.Assert(cb.String(), qt.Equals, "in.txt\n<\n")
}

func TestRedirectErrors(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	r, cb := newTestRunner(t)

	runLines(t, r, cb, "$PROG cat < missing.txt")
	c.Assert(cb.String(), qt.Equals, fmt.Sprintf(
		"quash: open input failed: open %s: no such file or directory\nexit status 1\n",
		filepath.Join(r.Dir, "missing.txt")))

	cb.Reset()
	runLines(t, r, cb, "echo hi > nodir/out.txt")
	c.Assert(cb.String(), qt.Equals, fmt.Sprintf(
		"quash: open output failed: open %s: no such file or directory\nexit status 1\n",
		filepath.Join(r.Dir, "nodir", "out.txt")))
}

// trackedStream is a redirection target which is not a file, so that
// programs are fed through copying goroutines.
type trackedStream struct {
	internal.ConcBuffer
	closed atomic.Bool
}

func (*trackedStream) Read([]byte) (int, error) { return 0, io.EOF }
func (s *trackedStream) Close() error {
	s.closed.Store(true)
	return nil
}

func TestRedirectBackgroundStream(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	out := new(trackedStream)
	open := func(ctx context.Context, path string, flag int, perm os.FileMode) (io.ReadWriteCloser, error) {
		return out, nil
	}
	r, cb := newTestRunner(t, OpenHandler(open))
	c.Assert(r.Run(context.Background(), "$PROG sleep 200ms > out.txt &"), qt.IsNil)
	c.Assert(cb.String(), qt.Matches, `\[PID \d+\] Running in the background\.\n`)

	// The stream stays open while the job still writes to it.
	deadline := time.Now().Add(10 * time.Second)
	for out.String() == "" && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	c.Assert(out.String(), qt.Equals, "slept\n")
	c.Assert(out.closed.Load(), qt.IsFalse)

	// Foreground jobs are done with it once waited for.
	out.Reset()
	c.Assert(r.Run(context.Background(), "$PROG args fg > out.txt"), qt.IsNil)
	c.Assert(out.String(), qt.Equals, "fg\n")
	c.Assert(out.closed.Load(), qt.IsTrue)
}

func TestRedirectPerm(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	r, cb := newTestRunner(t)
	runLines(t, r, cb, "echo hi > out.txt")
	info, err := os.Stat(filepath.Join(r.Dir, "out.txt"))
	c.Assert(err, qt.IsNil)
	// umask may only take permissions away
	c.Assert(info.Mode().Perm()&^0o644, qt.Equals, os.FileMode(0))
	c.Assert(info.Mode().Perm()&0o600, qt.Equals, os.FileMode(0o600))
}

func TestMaxArgs(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	r, cb := newTestRunner(t, MaxArgs(4))
	runLines(t, r, cb, "echo a b c d e")
	c.Assert(cb.String(), qt.Equals, "a b\n")

	_, err := New(MaxArgs(1))
	c.Assert(err, qt.ErrorMatches, "max args must be at least 2, got 1")
}

func TestExited(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	r, cb := newTestRunner(t)
	c.Assert(r.Exited(), qt.IsFalse)
	c.Assert(r.Run(context.Background(), "quit"), qt.IsNil)
	c.Assert(r.Exited(), qt.IsTrue)
	c.Assert(r.Run(context.Background(), "echo after"), qt.IsNil)
	c.Assert(cb.String(), qt.Equals, "")
}

func TestIsExitStatus(t *testing.T) {
	t.Parallel()
	r, _ := newTestRunner(t)
	err := r.Run(context.Background(), "$PROG exit 5")
	status, ok := IsExitStatus(err)
	qt.Assert(t, ok, qt.IsTrue)
	qt.Assert(t, status, qt.Equals, uint8(5))

	_, ok = IsExitStatus(context.Canceled)
	qt.Assert(t, ok, qt.IsFalse)
}
