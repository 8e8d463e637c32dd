// Package storage persists generated documentation pages.
//
// # Overview
//
// PageStore is the write side used by the converter and the read side used
// by the preview server. FileSystemStorage is the only backend: pages live
// under one output directory and every write goes through WriteFileAtomic,
// so a page is either the previous version or the complete new one.
//
// # Usage Example
//
//	store, err := storage.NewFileSystemStorage("docs/api")
//	if err != nil {
//		return err
//	}
//	if err := store.WritePage("user/v1/user.md", content); err != nil {
//		return err
//	}
//	pages, _ := store.ListPages(".md")
package storage
