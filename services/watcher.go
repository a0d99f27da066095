package services

import (
	"context"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// WatchDirectory keeps the vector index in sync with the content directory:
// writes and creates trigger a re-ingest of the file, removes and renames drop
// its chunks. Blocks until the context is canceled.
func (s *Ingestor) WatchDirectory(ctx context.Context, dirPath string) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		s.log.WithError(err).Error("failed to create content watcher")
		return
	}
	defer watcher.Close()

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !isSupportedFile(event.Name) {
					continue
				}

				entry := s.log.WithFields(logrus.Fields{"file": event.Name, "op": event.Op.String()})

				// Editors often write via a temp file plus rename, so Create
				// and Write are handled identically.
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					entry.Info("content changed, re-ingesting")
					if err := s.IngestFile(ctx, event.Name); err != nil {
						entry.WithError(err).Warn("re-ingest failed")
					}
				} else if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
					entry.Info("content removed, dropping from index")
					if err := s.RemoveFile(ctx, event.Name); err != nil {
						entry.WithError(err).Warn("index removal failed")
					}
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.log.WithError(err).Warn("content watcher error")

			case <-ctx.Done():
				return
			}
		}
	}()

	if err := watcher.Add(dirPath); err != nil {
		s.log.WithError(err).WithField("dir", dirPath).Error("failed to watch content directory")
		return
	}
	s.log.WithField("dir", dirPath).Info("watching content directory")

	<-ctx.Done()
}
