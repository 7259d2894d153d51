package commitment

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/council/internal/wizard"
)

type recordingExporter struct {
	mu      sync.Mutex
	exports []Pair
	err     error
	// hook runs inside Export before it returns.
	hook func()
}

func (e *recordingExporter) Export(_ context.Context, _ string, p Pair) error {
	if e.hook != nil {
		e.hook()
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.exports = append(e.exports, p)
	return nil
}

func newFlow(t *testing.T, exp Exporter, opts ...wizard.Option) *Flow {
	t.Helper()
	f, err := NewFlow(MiMCHasher{}, exp, opts...)
	require.NoError(t, err)
	return f
}

func TestFlow_IntroAdvancesUnconditionally(t *testing.T) {
	f := newFlow(t, &recordingExporter{})
	assert.True(t, f.CanAdvance())
	require.NoError(t, f.Next())
	assert.Equal(t, StepEncryption, f.State().CurrentStep)
}

func TestFlow_EncryptionRequiresExport(t *testing.T) {
	f := newFlow(t, &recordingExporter{})
	require.NoError(t, f.Next())

	_, err := f.SetKey("0xabc")
	require.NoError(t, err)
	assert.False(t, f.CanAdvance())
	assert.True(t, wizard.IsRejected(f.Next()))
	assert.True(t, wizard.IsRejected(f.GoTo(StepShare)))
	assert.Equal(t, StepEncryption, f.State().CurrentStep)
}

func TestFlow_ExportThenShare(t *testing.T) {
	exp := &recordingExporter{}
	f := newFlow(t, exp)
	require.NoError(t, f.Next())
	pair, err := f.SetKey("0xabc")
	require.NoError(t, err)

	require.NoError(t, f.Export(context.Background()))
	assert.True(t, f.Exported())
	assert.Equal(t, []Pair{pair}, exp.exports)

	id, ok := f.PublicID()
	require.True(t, ok)
	want, err := PublicID(MiMCHasher{}, pair)
	require.NoError(t, err)
	assert.Equal(t, want, id)

	assert.True(t, f.CanAdvance())
	require.NoError(t, f.Next())
	assert.Equal(t, wizard.State{CurrentStep: StepShare, HighestCompletedStep: StepEncryption}, f.State())
}

func TestFlow_EmptyKeyCannotExport(t *testing.T) {
	exp := &recordingExporter{}
	f := newFlow(t, exp)
	require.NoError(t, f.Next())

	err := f.Export(context.Background())
	assert.True(t, wizard.IsRejected(err))
	assert.Empty(t, exp.exports)
	assert.False(t, f.Exported())
}

func TestFlow_KeyChangeResetsGate(t *testing.T) {
	f := newFlow(t, &recordingExporter{})
	require.NoError(t, f.Next())

	f.SetKey("0x01")
	require.NoError(t, f.Export(context.Background()))
	assert.True(t, f.CanAdvance())

	f.SetKey("0x02")
	assert.False(t, f.Exported())
	assert.False(t, f.CanAdvance())
	_, ok := f.PublicID()
	assert.False(t, ok)
	assert.True(t, wizard.IsRejected(f.GoTo(StepShare)))

	require.NoError(t, f.Export(context.Background()))
	require.NoError(t, f.GoTo(StepShare))
}

func TestFlow_KeyChangeDuringExport(t *testing.T) {
	exp := &recordingExporter{}
	f := newFlow(t, exp)
	require.NoError(t, f.Next())
	f.SetKey("0x01")

	exp.hook = func() { f.SetKey("0x02") }
	err := f.Export(context.Background())
	assert.ErrorIs(t, err, ErrStaleExport)
	assert.False(t, f.Exported())
	assert.False(t, f.CanAdvance())
	assert.Equal(t, "0x02", f.Pair().Key)
}

func TestFlow_ExporterFailureKeepsGateClosed(t *testing.T) {
	exp := &recordingExporter{err: errors.New("disk full")}
	f := newFlow(t, exp)
	require.NoError(t, f.Next())
	f.SetKey("0x01")

	err := f.Export(context.Background())
	assert.ErrorContains(t, err, "disk full")
	assert.False(t, f.Exported())
	assert.Equal(t, 1, f.State().HighestCompletedStep)
}

func TestFlow_KeyFixedOnShareStep(t *testing.T) {
	f := newFlow(t, &recordingExporter{})
	require.NoError(t, f.Next())
	first, err := f.SetKey("0xabc")
	require.NoError(t, err)
	require.NoError(t, f.Export(context.Background()))
	require.NoError(t, f.Next())
	id, ok := f.PublicID()
	require.True(t, ok)

	pair, err := f.SetKey("0xdef")
	assert.True(t, wizard.IsRejected(err))
	assert.Equal(t, first, pair)
	assert.Equal(t, StepShare, f.State().CurrentStep)
	assert.True(t, f.CanView(StepShare))
	got, ok := f.PublicID()
	require.True(t, ok)
	assert.Equal(t, id, got)

	// back on the encryption step the key may change again
	require.NoError(t, f.Previous())
	_, err = f.SetKey("0xdef")
	require.NoError(t, err)
	assert.False(t, f.CanView(StepShare))
}

func TestFlow_ExportOnlyOnEncryptionStep(t *testing.T) {
	exp := &recordingExporter{}
	f := newFlow(t, exp)
	_, err := f.SetKey("0xabc")
	require.NoError(t, err)

	err = f.Export(context.Background())
	assert.True(t, wizard.IsRejected(err))
	assert.Empty(t, exp.exports)
	assert.Equal(t, wizard.State{CurrentStep: StepIntro, HighestCompletedStep: StepIntro}, f.State())

	require.NoError(t, f.Next())
	require.NoError(t, f.Export(context.Background()))
	assert.Len(t, exp.exports, 1)
}

func TestFlow_RestoreExport(t *testing.T) {
	f := newFlow(t, &recordingExporter{}, wizard.WithState(wizard.State{CurrentStep: StepShare, HighestCompletedStep: StepEncryption}))
	assert.False(t, f.CanView(StepShare))

	f.RestoreExport("0x2a")
	assert.True(t, f.CanView(StepShare))
	id, ok := f.PublicID()
	require.True(t, ok)
	assert.Equal(t, "0x2a", id)
	assert.Empty(t, f.Pair().Key)

	f.RestoreExport("")
	id, _ = f.PublicID()
	assert.Equal(t, "0x2a", id)
}

func TestFlow_Statuses(t *testing.T) {
	f := newFlow(t, &recordingExporter{})
	assert.Equal(t, []wizard.Status{wizard.StatusCurrent, wizard.StatusUpcoming, wizard.StatusUpcoming}, f.Statuses())
	require.NoError(t, f.Next())
	assert.Equal(t, []wizard.Status{wizard.StatusComplete, wizard.StatusCurrent, wizard.StatusUpcoming}, f.Statuses())
}

func TestFlow_ReentryAllowedByDefault(t *testing.T) {
	f := newFlow(t, &recordingExporter{})
	require.NoError(t, f.Next())
	f.SetKey("0x01")
	require.NoError(t, f.Export(context.Background()))
	require.NoError(t, f.Next())

	require.NoError(t, f.Previous())
	assert.Equal(t, StepEncryption, f.State().CurrentStep)
}

func TestFlow_LockOnFinal(t *testing.T) {
	f := newFlow(t, &recordingExporter{}, wizard.WithLockOnFinal())
	require.NoError(t, f.Next())
	f.SetKey("0x01")
	require.NoError(t, f.Export(context.Background()))
	require.NoError(t, f.Next())

	assert.True(t, wizard.IsRejected(f.Previous()))
	assert.Equal(t, StepShare, f.State().CurrentStep)
}

func TestFileExporter(t *testing.T) {
	dir := t.TempDir()
	pair := Derive("0xfeed")
	require.NoError(t, FileExporter{Dir: dir}.Export(context.Background(), ExportName, pair))

	path := filepath.Join(dir, ExportName+".json")
	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, pair.Key, got["privateKey"])
	assert.Equal(t, pair.Secret, got["secret"])

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
