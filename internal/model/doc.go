// Package model defines the core data structures shared by the resolver
// and the downloader.
//
// # ModRecord
//
// ModRecord describes one fetchable artifact:
//
//	rec := &model.ModRecord{ModID: "238222", FileName: "jei-1.12.2", DownloadURL: url}
//	fmt.Println(rec.DiskName()) // "jei-1.12.2.jar"
//
// # File Names
//
// NormalizeFileName sanitizes remote file names and makes sure they carry
// the ".jar" extension. It is idempotent.
//
// # Platform Version
//
// PlatformVersion is the compatibility constraint of a run:
//
//	v, _ := model.ParsePlatformVersion("1.12.2")
//	v.Matches("1.12.2") // true
//	v.Matches("1.12.x") // true
//	v.Matches("Forge")  // false
package model
