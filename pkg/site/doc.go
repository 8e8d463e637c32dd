// Package site orchestrates documentation builds.
//
// A Site discovers the configured proto sources, converts the ones whose
// content changed since the last build, records their digests in the change
// cache and merges the generated pages into the mkdocs nav. HandleEvent
// applies single watcher events to the same state:
//
//	s, _ := site.New(cfg, site.WithFileCache(files), site.WithExtractor(memo))
//	if _, err := s.Build(ctx, false); err != nil {
//		return err
//	}
//	w, _ := watcher.New(watchCfg, func(ctx context.Context, e watcher.Event) {
//		s.HandleEvent(ctx, e)
//	})
//	return w.Run(ctx)
package site
