package moddb

import (
	"compress/bzip2"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/klauspost/compress/zstd"
)

// ErrNoMatch is returned when no mod matches an identifier.
var ErrNoMatch = errors.New("no matching mod")

// Mod is an entry of the mod index.
type Mod struct {
	ID            int64
	Name          string
	Slug          string
	DownloadCount float64
}

// IDString returns the id as used by metadata sources.
func (m *Mod) IDString() string {
	return strconv.FormatInt(m.ID, 10)
}

// DB is an in-memory mod index.
//
// The feed has the shape
//
//	{"data": [{"Id": 238222, "Name": "Just Enough Items (JEI)",
//	           "WebSiteURL": "https://www.curseforge.com/minecraft/mc-mods/jei",
//	           "DownloadCount": 1.2e8}, ...]}
//
// and only these fields are read.
type DB struct {
	Mods []Mod

	byID   map[int64]int
	bySlug map[string]int
}

// Load reads an index from path. Files ending in .bz2 or .zst are
// decompressed first.
//
// Example:
//
//	db, err := moddb.Load("~/.modpkg/complete.json.bz2")
//	mod := db.WonkyFind("jei")
func Load(path string) (*DB, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	switch {
	case strings.HasSuffix(path, ".bz2"):
		r = bzip2.NewReader(f)
	case strings.HasSuffix(path, ".zst"):
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		r = dec
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read mod index %s: %w", path, err)
	}
	return Parse(data)
}

// Parse builds an index from the raw JSON feed.
func Parse(data []byte) (*DB, error) {
	db := &DB{}

	_, err := jsonparser.ArrayEach(data, func(value []byte, _ jsonparser.ValueType, _ int, _ error) {
		id, _ := jsonparser.GetInt(value, "Id")
		name, _ := jsonparser.GetString(value, "Name")
		url, _ := jsonparser.GetString(value, "WebSiteURL")
		downloads, _ := jsonparser.GetFloat(value, "DownloadCount")

		db.Mods = append(db.Mods, Mod{
			ID:            id,
			Name:          name,
			Slug:          slugOf(url),
			DownloadCount: downloads,
		})
	}, "data")
	if err != nil {
		return nil, fmt.Errorf("parse mod index: %w", err)
	}

	db.index()
	return db, nil
}

func slugOf(url string) string {
	url = strings.TrimRight(url, "/")
	if i := strings.LastIndex(url, "/"); i >= 0 {
		return url[i+1:]
	}
	return url
}

func (db *DB) index() {
	db.byID = make(map[int64]int, len(db.Mods))
	db.bySlug = make(map[string]int, len(db.Mods))
	for i, m := range db.Mods {
		db.byID[m.ID] = i
		if m.Slug != "" {
			db.bySlug[m.Slug] = i
		}
	}
}

// FindByID returns the mod with the given id or nil.
func (db *DB) FindByID(id int64) *Mod {
	if i, ok := db.byID[id]; ok {
		return &db.Mods[i]
	}
	return nil
}

// FindBySlug returns the mod with the given slug or nil.
func (db *DB) FindBySlug(slug string) *Mod {
	if i, ok := db.bySlug[slug]; ok {
		return &db.Mods[i]
	}
	return nil
}

// WonkyFind makes a best guess at which mod a user means.
//
// It tries, in order: an exact slug, a case-insensitive name and finally
// the most downloaded mod whose slug starts with the query.
func (db *DB) WonkyFind(query string) *Mod {
	if m := db.FindBySlug(query); m != nil {
		return m
	}

	for i := range db.Mods {
		if strings.EqualFold(db.Mods[i].Name, query) {
			return &db.Mods[i]
		}
	}

	q := strings.ToLower(query)
	var candidates []*Mod
	for i := range db.Mods {
		if strings.HasPrefix(db.Mods[i].Slug, q) {
			candidates = append(candidates, &db.Mods[i])
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].DownloadCount > candidates[j].DownloadCount
	})
	return candidates[0]
}

// ModID maps a user supplied identifier to a mod id. Numeric identifiers
// are taken as ids; anything else is looked up with WonkyFind.
func (db *DB) ModID(identifier string) (string, error) {
	if _, err := strconv.ParseInt(identifier, 10, 64); err == nil {
		return identifier, nil
	}
	if m := db.WonkyFind(identifier); m != nil {
		return m.IDString(), nil
	}
	return "", fmt.Errorf("%q: %w", identifier, ErrNoMatch)
}
