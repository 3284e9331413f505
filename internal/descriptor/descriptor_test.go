package descriptor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/classdrift/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadYAML(t *testing.T) {
	d, err := Load(filepath.Join("testdata", "ant.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "apache", d.SystemKey())
	require.Len(t, d.Releases, 2)

	abs, err := filepath.Abs("testdata")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(abs, "releases", "ant-1.1.jar"), d.ReleasePath(d.Releases[0]))
	assert.Equal(t, "/opt/releases/ant-1.2", d.ReleasePath(d.Releases[1]))

	h := d.History()
	assert.Equal(t, "apache", h.Key)
	assert.Equal(t, map[int]string{1: "1.1", 2: "1.2"}, h.Releases)
	assert.Equal(t, "Apache Ant", h.Metadata[schema.MetaName])
	assert.Equal(t, "Apache", h.Metadata[schema.MetaShortName])
	assert.Equal(t, "library", h.Metadata[schema.MetaType])
	assert.Equal(t, "Java build tool", h.Metadata[schema.MetaDescription])
	assert.Equal(t, "false", h.Metadata[schema.MetaCommercial])
	assert.Equal(t, []string{"org.apache.tools"}, h.Includes)
	assert.Equal(t, []string{"**.test.**", "junit"}, h.Excludes)
}

func TestLoadTOML(t *testing.T) {
	d, err := Load(filepath.Join("testdata", "ant.toml"))
	require.NoError(t, err)

	assert.Equal(t, "ant", d.SystemKey())
	assert.Equal(t, []int{1, 2}, d.History().RSNs())
	_, hasDescription := d.History().Metadata[schema.MetaDescription]
	assert.False(t, hasDescription)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load("history.json")
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading descriptor")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("name: [unterminated"), 0o600))
	_, err = Load(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing yaml descriptor")
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing name",
			yaml:    "releases: [{rsn: 1, id: a, path: p}]",
			wantErr: "Name",
		},
		{
			name:    "blank name",
			yaml:    "name: \"  \"\nreleases: [{rsn: 1, id: a, path: p}]",
			wantErr: "name is blank",
		},
		{
			name:    "no releases",
			yaml:    "name: Demo",
			wantErr: "Releases",
		},
		{
			name:    "missing path",
			yaml:    "name: Demo\nreleases: [{rsn: 1, id: a}]",
			wantErr: "Path",
		},
		{
			name:    "duplicate ids",
			yaml:    "name: Demo\nreleases: [{rsn: 1, id: a, path: p}, {rsn: 2, id: a, path: q}]",
			wantErr: "unique",
		},
		{
			name:    "gap in rsns",
			yaml:    "name: Demo\nreleases: [{rsn: 1, id: a, path: p}, {rsn: 3, id: b, path: q}]",
			wantErr: "dense",
		},
		{
			name:    "rsns not starting at one",
			yaml:    "name: Demo\nreleases: [{rsn: 2, id: a, path: p}]",
			wantErr: "dense",
		},
		{
			name:    "bad key",
			yaml:    "name: Demo\nkey: a/b\nreleases: [{rsn: 1, id: a, path: p}]",
			wantErr: "Key",
		},
		{
			name:    "bad glob",
			yaml:    "name: Demo\nexclude: [\"org.[bad\"]\nreleases: [{rsn: 1, id: a, path: p}]",
			wantErr: "invalid package filter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml), YAMLFormat)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseRelativePathsWithoutFile(t *testing.T) {
	d, err := Parse([]byte("name: Demo\nreleases: [{rsn: 1, id: a, path: rel/a.jar}]"), YAMLFormat)
	require.NoError(t, err)
	assert.Equal(t, "rel/a.jar", d.ReleasePath(d.Releases[0]))
	assert.Equal(t, "demo", d.SystemKey())
	assert.True(t, d.Filter().Keep("anything"))
}

func TestFormatOf(t *testing.T) {
	for path, want := range map[string]Format{"a.yaml": YAMLFormat, "a.YML": YAMLFormat, "a.toml": TOMLFormat} {
		got, err := FormatOf(path)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := Parse(nil, Format("ini"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
