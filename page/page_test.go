package page

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingPage struct {
	Recorder
	err error
}

func (f *failingPage) Append(entries ...string) error {
	return f.err
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()

	require.NoError(t, r.SetStatus("Submitting..."))
	require.NoError(t, r.Append("a", "b"))
	require.NoError(t, r.HideInput())

	assert.Equal(t, "Submitting...", r.Status())
	assert.Equal(t, []string{"a", "b"}, r.Items())
	assert.True(t, r.InputHidden())

	require.NoError(t, r.Reset())
	assert.Empty(t, r.Items())
	assert.Equal(t, 1, r.Resets())
}

func TestRecorder_ItemsIsCopy(t *testing.T) {
	r := NewRecorder()
	_ = r.Append("a")

	items := r.Items()
	items[0] = "changed"

	assert.Equal(t, []string{"a"}, r.Items())
}

func TestMulti_FansOut(t *testing.T) {
	r1, r2 := NewRecorder(), NewRecorder()
	p := Multi(r1, nil, r2)

	require.NoError(t, p.SetStatus("ok"))
	require.NoError(t, p.Append("x"))
	require.NoError(t, p.HideInput())

	for _, r := range []*Recorder{r1, r2} {
		assert.Equal(t, "ok", r.Status())
		assert.Equal(t, []string{"x"}, r.Items())
		assert.True(t, r.InputHidden())
	}

	require.NoError(t, p.Reset())
	assert.Empty(t, r1.Items())
	assert.Empty(t, r2.Items())
}

func TestMulti_CallsAllAndJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	bad := &failingPage{err: boom}
	good := NewRecorder()

	err := Multi(bad, good).Append("x")

	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"x"}, good.Items())
}

func TestTerminal_WritesLines(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf)

	require.NoError(t, term.SetStatus("Found 2 results"))
	require.NoError(t, term.Append("a", "b"))
	require.NoError(t, term.Reset())
	require.NoError(t, term.Append("c"))
	require.NoError(t, term.HideInput())

	out := buf.String()
	assert.Contains(t, out, "Found 2 results")
	assert.Contains(t, out, "   1. a")
	assert.Contains(t, out, "   2. b")
	// numbering restarts after reset
	assert.Contains(t, out, "   1. c")
	assert.Contains(t, out, strings.Repeat("─", 40))
}

func TestTerminal_SanitizesEscapes(t *testing.T) {
	var buf bytes.Buffer
	term := NewTerminal(&buf)

	require.NoError(t, term.Append("evil\x1b[2Jtext"))

	assert.NotContains(t, buf.String(), "\x1b[2J")
	assert.Contains(t, buf.String(), "evil�[2Jtext")
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "a\tb", Sanitize("a\tb"))
	assert.Equal(t, "a�b", Sanitize("a\nb"))
	assert.Equal(t, "plain", Sanitize("plain"))
}

func TestRenderList(t *testing.T) {
	got, err := RenderList([]string{"1.2.3.4:80", "<script>alert(1)</script>"})
	require.NoError(t, err)

	assert.Equal(t,
		`<li class="list-group-item">1.2.3.4:80</li>`+
			`<li class="list-group-item">&lt;script&gt;alert(1)&lt;/script&gt;</li>`,
		got)
}

func TestRenderList_Empty(t *testing.T) {
	got, err := RenderList(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
