package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	modhttp "github.com/modpkg/modpkg/internal/http"
	"github.com/modpkg/modpkg/internal/metadata/dto"
	"github.com/modpkg/modpkg/internal/model"
)

const filesJSON = `[
  {
    "id": 100,
    "displayName": "JEI 1.11",
    "fileName": "jei_1.11.2-4.3.0",
    "fileDate": "2017-05-01T10:00:00Z",
    "downloadUrl": "https://files.example.com/100/jei_1.11.2-4.3.0.jar",
    "gameVersion": ["1.11.2"],
    "dependencies": []
  },
  {
    "id": 200,
    "displayName": "JEI 1.12 old",
    "fileName": "jei_1.12.2-4.15.0",
    "fileDate": "2019-01-01T10:00:00Z",
    "downloadUrl": "https://files.example.com/200/jei_1.12.2-4.15.0.jar",
    "gameVersion": ["1.12.2", "Forge"],
    "dependencies": [{"addonId": 7, "type": 3}]
  },
  {
    "id": 300,
    "displayName": "JEI 1.12 new",
    "fileName": "jei_1.12.2-4.16.1.jar",
    "fileDate": "2020-03-04T10:00:00.613Z",
    "downloadUrl": "https://files.example.com/300/jei_1.12.2-4.16.1.jar",
    "gameVersion": ["1.12.2"],
    "dependencies": [
      {"addonId": 7, "type": 3},
      {"addonId": 8, "type": 2},
      {"addonId": 9, "type": 3},
      {"addonId": 7, "type": 3}
    ]
  }
]`

func newAPI(t *testing.T, handler http.HandlerFunc) *APISource {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewAPISource(modhttp.NewClient(time.Second), srv.URL+"/")
}

func TestAPISource_Lookup(t *testing.T) {
	src := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/addon/238222/files", r.URL.Path)
		fmt.Fprint(w, filesJSON)
	})

	rec, err := src.Lookup(context.Background(), "238222", model.MustParsePlatformVersion("1.12.2"))
	require.NoError(t, err)

	assert.Equal(t, "238222", rec.ModID)
	assert.Equal(t, "JEI 1.12 new", rec.DisplayName)
	assert.Equal(t, "jei_1.12.2-4.16.1.jar", rec.FileName)
	assert.Equal(t, "https://files.example.com/300/jei_1.12.2-4.16.1.jar", rec.DownloadURL)
	assert.Equal(t, []string{"7", "9"}, rec.DependencyIDs, "only required dependencies, deduplicated, in order")
}

func TestAPISource_Lookup_NoCompatibleRelease(t *testing.T) {
	src := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, filesJSON)
	})

	_, err := src.Lookup(context.Background(), "238222", model.MustParsePlatformVersion("1.16.5"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAPISource_Lookup_UnknownMod(t *testing.T) {
	src := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := src.Lookup(context.Background(), "1", model.MustParsePlatformVersion("1.12.2"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAPISource_Lookup_TransportFailure(t *testing.T) {
	src := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := src.Lookup(context.Background(), "1", model.MustParsePlatformVersion("1.12.2"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestAPISource_Lookup_MalformedData(t *testing.T) {
	src := newAPI(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id": "not-a-number"}]`)
	})

	_, err := src.Lookup(context.Background(), "1", model.MustParsePlatformVersion("1.12.2"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestFindRelease(t *testing.T) {
	var files []dto.JSONModFile
	require.NoError(t, json.Unmarshal([]byte(filesJSON), &files))

	assert.Equal(t, int64(100), FindRelease(files, model.MustParsePlatformVersion("1.11.2")).ID)
	assert.Equal(t, int64(300), FindRelease(files, model.MustParsePlatformVersion("1.12.2")).ID)
	assert.Nil(t, FindRelease(files, model.MustParsePlatformVersion("1.7.10")))
	assert.Nil(t, FindRelease(nil, model.MustParsePlatformVersion("1.12.2")))
}

func TestFindRelease_SameDatePrefersHigherID(t *testing.T) {
	date := dto.FileTime{Time: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}
	files := []dto.JSONModFile{
		{ID: 5, FileDate: date, GameVersions: []string{"1.12.2"}},
		{ID: 9, FileDate: date, GameVersions: []string{"1.12.2"}},
		{ID: 7, FileDate: date, GameVersions: []string{"1.12.2"}},
	}

	assert.Equal(t, int64(9), FindRelease(files, model.MustParsePlatformVersion("1.12.2")).ID)
}

func TestFileTime_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{`"2019-07-12T17:19:35.613Z"`, false},
		{`"2019-07-12T17:19:35"`, false},
		{`""`, false},
		{`"yesterday"`, true},
		{`12`, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var ft dto.FileTime
			err := json.Unmarshal([]byte(tt.input), &ft)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStaticSource(t *testing.T) {
	src := NewStaticSource().
		Add("1.12.2", &model.ModRecord{ModID: "a"}).
		Add("1.16.5", &model.ModRecord{ModID: "b"})

	rec, err := src.Lookup(context.Background(), "a", model.MustParsePlatformVersion("1.12.2"))
	require.NoError(t, err)
	assert.Equal(t, "a", rec.ModID)

	_, err = src.Lookup(context.Background(), "b", model.MustParsePlatformVersion("1.12.2"))
	assert.ErrorIs(t, err, ErrNotFound)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Lookup(ctx, "a", model.MustParsePlatformVersion("1.12.2"))
	assert.ErrorIs(t, err, context.Canceled)
}
