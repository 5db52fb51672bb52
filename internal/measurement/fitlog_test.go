package measurement

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	apperrors "labmeas/internal/errors"
	"labmeas/internal/shared/testutil"
)

const sampleFitLog = "Model: ZnO on Si\r\n" +
	"start_Fit Parms\r\n" +
	"\tParameter\tValue\r\n" +
	"\t'Thickness # 1' = \t85.31\r\n" +
	"\t'Amp # 1'\t=\t1.2e-3\r\n" +
	"\tR1 = 12.5\r\n" +
	"\r\n" +
	"MSE = 3.2\r\n" +
	"end_Fit Parms\r\n" +
	"trailer\r\n"

func writeFitLog(t *testing.T, dir, name string, body []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	testutil.WriteZip(t, path, map[string][]byte{
		FitLogEntry: body,
		"_Model":    []byte("layers"),
	})
	return path
}

func TestNewFitLog(t *testing.T) {
	tmp := t.TempDir()
	path := writeFitLog(t, t.TempDir(), "A1_ox_300.zip", []byte(sampleFitLog))

	m, err := NewFitLog(path, WithTempDir(tmp))
	require.NoError(t, err)

	assert.Equal(t, []string{"Amp # 1", "R1", "Thickness # 1"}, m.Keys())

	v, err := m.Get("R1")
	require.NoError(t, err)
	assert.Equal(t, 12.5, v)

	fields, err := AsDict(m)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"Amp # 1": 1.2e-3, "R1": 12.5, "Thickness # 1": 85.31}, fields)

	assert.Empty(t, testutil.DirEntries(t, tmp), "extracted log left behind")
}

func TestNewFitLog_MinimalBlock(t *testing.T) {
	tmp := t.TempDir()
	path := writeFitLog(t, t.TempDir(), "s.zip", []byte("start_Fit Parms\n...\nR1 = 12.5\n...\nend_Fit Parms"))

	m, err := NewFitLog(path, WithTempDir(tmp))
	require.NoError(t, err)

	fields, err := AsDict(m)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"R1": 12.5}, fields)
	assert.Empty(t, testutil.DirEntries(t, tmp))
}

func TestNewFitLog_Latin1(t *testing.T) {
	body, err := charmap.ISO8859_1.NewEncoder().String("start_Fit Parms\nhdr\nÅngström ° = 4.5\nftr\nend_Fit Parms")
	require.NoError(t, err)
	path := writeFitLog(t, t.TempDir(), "s.zip", []byte(body))

	m, err := NewFitLog(path, WithTempDir(t.TempDir()))
	require.NoError(t, err)

	v, err := m.Get("Ångström °")
	require.NoError(t, err)
	assert.Equal(t, 4.5, v)
}

func TestNewFitLog_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{
			name:    "line without equals",
			body:    "start_Fit Parms\nh\nR1 12.5\nf\nend_Fit Parms",
			wantErr: apperrors.ErrMalformedLog,
		},
		{
			name:    "non numeric value",
			body:    "start_Fit Parms\nh\nR1 = twelve\nf\nend_Fit Parms",
			wantErr: apperrors.ErrNonNumericValue,
		},
		{
			name:    "missing start marker",
			body:    "h\nR1 = 1\nend_Fit Parms",
			wantErr: apperrors.ErrMalformedLog,
		},
		{
			name:    "missing end marker",
			body:    "start_Fit Parms\nh\nh\nR1 = 1\n",
			wantErr: apperrors.ErrMalformedLog,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmp := t.TempDir()
			path := writeFitLog(t, t.TempDir(), "bad.zip", []byte(tt.body))

			_, err := NewFitLog(path, WithTempDir(tmp))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), "bad.zip")
			assert.Empty(t, testutil.DirEntries(t, tmp), "extracted log left behind after failure")
		})
	}
}

func TestNewFitLog_MissingEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.zip")
	testutil.WriteZip(t, path, map[string][]byte{"_Model": []byte("x")})

	_, err := NewFitLog(path)
	assert.ErrorIs(t, err, apperrors.ErrMalformedLog)
}

func TestNewFitLog_NotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.zip")
	require.NoError(t, os.WriteFile(path, []byte("not an archive"), 0644))

	_, err := NewFitLog(path)
	assert.ErrorIs(t, err, apperrors.ErrStorage)
}

func TestFitLog_UnknownKeyIsError(t *testing.T) {
	path := writeFitLog(t, t.TempDir(), "s.zip", []byte(sampleFitLog))
	m, err := NewFitLog(path, WithTempDir(t.TempDir()))
	require.NoError(t, err)

	_, err = m.Get("Bogus")
	assert.ErrorIs(t, err, apperrors.ErrUnresolvableKey)

	_, err = AsDict(m, "R1", "Bogus")
	assert.ErrorIs(t, err, apperrors.ErrUnresolvableKey)
	assert.Equal(t, VariantFitLog, VariantOf(m))
}

func TestParseFitParams(t *testing.T) {
	values, err := parseFitParams("start_Fit Parms\nend_Fit Parms")
	require.NoError(t, err)
	assert.Empty(t, values)

	values, err = parseFitParams(strings.Join([]string{
		"start_Fit Parms", "a", `"Eg" = 3.37`, "x = 1 = 2", "b", "end_Fit Parms",
	}, "\n"))
	assert.ErrorIs(t, err, apperrors.ErrNonNumericValue)
	assert.Nil(t, values)
}
