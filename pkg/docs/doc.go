// Package docs renders extracted protobuf files as Markdown pages.
//
// # Overview
//
// MarkdownRenderer formats one protobuf.ExtractedInfos: title, package,
// imports, messages (declaration order, nested messages after their parent),
// enums and services (sorted by name). Qualified field and rpc types are
// turned into relative links through a LinkResolver; anything that does not
// resolve is rendered as inline code. Link text is resolver.SimpleName of
// the type; rpc types use the format of resolver.Resolver.MarkdownLink,
// which builds the same link outside a page render.
//
// Converter runs a batch: it indexes every known file with a fresh
// resolver.Resolver, renders the requested files in parallel and writes
// each page atomically. One file failing does not stop the others.
//
// # Usage Example
//
//	converter := docs.NewConverter(docs.ConverterConfig{
//		Roots:   []string{"protos"},
//		Workers: 4,
//	})
//	result, err := converter.Convert(ctx, docs.Batch{All: files, OutputDir: "docs/api"})
//	if err != nil {
//		return err
//	}
//	for _, failed := range result.Failed {
//		log.Printf("skipped %s", failed)
//	}
package docs
