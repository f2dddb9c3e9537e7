// Package moddb is a local index of known mods, used to turn names and
// slugs typed by users into mod ids.
//
//	db, err := moddb.Load(settings.DatabasePath)
//	id, err := db.ModID("jei") // "238222"
//
// Supported file formats are plain JSON, bzip2 compressed JSON (.bz2, the
// format of the public feed) and zstd compressed JSON (.zst).
package moddb
