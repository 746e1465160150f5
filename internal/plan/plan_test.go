package plan

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmonroy/avionix/internal/chart"
	"github.com/dmonroy/avionix/pkg/entity"
	"github.com/dmonroy/avionix/pkg/kube/core"
	"github.com/dmonroy/avionix/pkg/kube/meta"
)

func layoutOf(t *testing.T, objects ...entity.Object) *chart.Layout {
	t.Helper()

	l, err := chart.Assemble(chart.Descriptor{
		Metadata: chart.Metadata{Name: "demo", Version: "0.1.0"},
		Objects:  objects,
	})
	require.NoError(t, err)

	return l
}

func cm(name string, data map[string]string) core.ConfigMap {
	c := core.ConfigMap{Metadata: meta.Named(name)}
	if data != nil {
		c.Data = entity.Some(data)
	}

	return c
}

func TestDiffLayout_NothingOnDisk(t *testing.T) {
	p, err := DiffLayout(layoutOf(t, cm("a", nil)), filepath.Join(t.TempDir(), "demo"))
	require.NoError(t, err)

	require.Len(t, p.Changes, 2)
	assert.Equal(t, FileChange{Type: ChangeAdded, Path: "Chart.yaml"}, p.Changes[0])
	assert.Equal(t, FileChange{Type: ChangeAdded, Path: "templates/configmap-a.yaml"}, p.Changes[1])
}

func TestDiffLayout_Unchanged(t *testing.T) {
	l := layoutOf(t, cm("a", nil))

	dir, err := l.Write(t.TempDir(), nil)
	require.NoError(t, err)

	p, err := DiffLayout(l, dir)
	require.NoError(t, err)
	assert.False(t, p.HasChanges())
	assert.Equal(t, "No changes detected.", FormatCompactSummary(p))
}

func TestDiffLayout_AddedRemovedModified(t *testing.T) {
	dir, err := layoutOf(t, cm("a", map[string]string{"k": "v1"}), cm("b", nil)).Write(t.TempDir(), nil)
	require.NoError(t, err)

	p, err := DiffLayout(layoutOf(t, cm("a", map[string]string{"k": "v2"}), cm("c", nil)), dir)
	require.NoError(t, err)

	require.Len(t, p.Changes, 3)
	assert.Equal(t, ChangeModified, p.Changes[0].Type)
	assert.Equal(t, "templates/configmap-a.yaml", p.Changes[0].Path)
	require.NotNil(t, p.Changes[0].Diff)
	assert.Contains(t, p.Changes[0].Diff.Unified, "-  k: v1")
	assert.Contains(t, p.Changes[0].Diff.Unified, "+  k: v2")
	assert.Equal(t, 1, p.Changes[0].Diff.Added)

	assert.Equal(t, FileChange{Type: ChangeRemoved, Path: "templates/configmap-b.yaml"}, p.Changes[1])
	assert.Equal(t, FileChange{Type: ChangeAdded, Path: "templates/configmap-c.yaml"}, p.Changes[2])

	added, removed, modified := p.Counts()
	assert.Equal(t, [3]int{1, 1, 1}, [3]int{added, removed, modified})
	assert.Equal(t, "1 files added, 1 files removed, 1 files modified", FormatCompactSummary(p))
}

func TestDiffLayout_IgnoresUnmanagedRootFiles(t *testing.T) {
	l := layoutOf(t, cm("a", nil))

	dir, err := l.Write(t.TempDir(), nil)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("notes"), 0o600))

	p, err := DiffLayout(l, dir)
	require.NoError(t, err)
	assert.False(t, p.HasChanges())
}

func TestFormatPlan(t *testing.T) {
	dir, err := layoutOf(t, cm("a", map[string]string{"k": "v1"})).Write(t.TempDir(), nil)
	require.NoError(t, err)

	p, err := DiffLayout(layoutOf(t, cm("a", map[string]string{"k": "v2"})), dir)
	require.NoError(t, err)

	var buf bytes.Buffer
	FormatPlan(&buf, p, false)

	out := buf.String()
	assert.Contains(t, out, "Plan: demo")
	assert.Contains(t, out, "~ templates/configmap-a.yaml (+1 -1)")
	assert.Contains(t, out, "+  k: v2")
	assert.Contains(t, out, "Summary: 1 files modified")
	assert.NotContains(t, out, "\033[")
}

func TestFormatPlan_NoChanges(t *testing.T) {
	var buf bytes.Buffer
	FormatPlan(&buf, &Plan{Chart: "demo", Dir: "out/demo"}, false)
	assert.Contains(t, buf.String(), "No changes detected.")
}

func TestFormatPlanJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatPlanJSON(&buf, &Plan{Chart: "demo", Dir: "out/demo"}))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "demo", decoded["chart"])
	assert.Equal(t, []interface{}{}, decoded["changes"])
}

func TestDiffDirs(t *testing.T) {
	oldDir, err := layoutOf(t, cm("a", map[string]string{"k": "v1"}), cm("b", nil)).Write(t.TempDir(), nil)
	require.NoError(t, err)

	newDir, err := layoutOf(t, cm("a", map[string]string{"k": "v2"}), cm("c", nil)).Write(t.TempDir(), nil)
	require.NoError(t, err)

	p, err := DiffDirs(oldDir, newDir)
	require.NoError(t, err)

	require.Len(t, p.Changes, 3)
	assert.Equal(t, ChangeModified, p.Changes[0].Type)
	assert.Equal(t, ChangeRemoved, p.Changes[1].Type)
	assert.Equal(t, ChangeAdded, p.Changes[2].Type)
	assert.Contains(t, p.Changes[0].Diff.Unified, filepath.ToSlash(filepath.Join(oldDir, "templates/configmap-a.yaml")))
}

func TestDiffDirs_EmptyNew(t *testing.T) {
	oldDir, err := layoutOf(t, cm("a", nil)).Write(t.TempDir(), nil)
	require.NoError(t, err)

	_, err = DiffDirs(oldDir, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "contains no chart files")
}
