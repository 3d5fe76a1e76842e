package pandaqa

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"
)

const (
	processInterval    = 1 * time.Second
	maxJitter          = 100 * time.Millisecond
	processFileTimeout = 15 * time.Minute
)

// ProcessFiles runs a background loop picking up uploaded files and pushing
// them through extraction, embedding and retrieval storage. The returned
// function blocks until the loop has drained after ctx is cancelled.
func (qa *qaServer) ProcessFiles(ctx context.Context) func() {
	var (
		ticker = time.NewTicker(processInterval - maxJitter/2)
		rand   = rand.New(rand.NewSource(time.Now().UnixNano()))
		wg     = new(sync.WaitGroup)
	)
	wg.Go(func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if maxJitter > 0 {
					jitterDuration := time.Duration(rand.Int63n(int64(maxJitter)))
					if err := jitter(ctx, jitterDuration); err != nil {
						if !errors.Is(err, context.Canceled) {
							log.Println("random jitter failed:", err.Error())
						}
						return
					}
				}

				total, err := qa.processFiles(ctx)
				if err != nil {
					log.Println("error processing files:", err.Error())
				} else if total > 0 {
					log.Printf("processed %d files", total)
				}
			}
		}
	})

	return func() {
		wg.Wait()
		log.Println("Stopped processing files")
	}
}

func jitter(ctx context.Context, jitterDuration time.Duration) error {
	select {
	case <-time.After(jitterDuration):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (qa *qaServer) processFiles(ctx context.Context) (int, error) {
	var files []*File
	if err := qa.store.Transactional(ctx, &sql.TxOptions{}, func(ctx context.Context) error {
		var err error
		files, err = qa.store.ListFiles(ctx, FileFilter{
			Status: FileStatusUploaded,
		}, qa.filePartial(), SortParams{
			Limit: 10,
			Order: SortOrderAsc,
			By:    `f."created"`,
		})
		if err != nil {
			return fmt.Errorf("list files: %w", err)
		}

		if len(files) == 0 {
			return nil
		}

		now := qa.now()
		for _, aFile := range files {
			aFile.Status = FileStatusProcessing
			aFile.Updated = Time{T: now}
			log.Printf("state change for file: %s status: %s", aFile.ID, aFile.Status)
		}

		return qa.store.SaveFiles(ctx, files...)
	}); err != nil {
		return 0, err
	}

	for _, aFile := range files {
		processCtx, cancel := context.WithTimeout(ctx, processFileTimeout)
		defer cancel()
		if err := qa.processFile(processCtx, aFile); err != nil {
			if err := qa.processingFileFailed(ctx, aFile, err); err != nil {
				log.Printf("error setting status to failed for file: %s error %v", aFile.ID, err)
			}
		}
	}

	// Files stuck in processing past the timeout get marked as failed so they
	// do not block the queue forever.
	if err := qa.store.Transactional(ctx, &sql.TxOptions{}, func(ctx context.Context) error {
		now := qa.now()

		files, err := qa.store.ListFiles(ctx, FileFilter{
			Status:            FileStatusProcessing,
			LastUpdatedBefore: Time{T: now}.Add(-processFileTimeout),
		}, qa.filePartial(), SortParams{})
		if err != nil {
			return fmt.Errorf("list files: %w", err)
		}

		for _, aFile := range files {
			if err := aFile.CompleteWithStatus(FileStatusProcessingFailed, "timed out", now); err != nil {
				return fmt.Errorf("change status: %w", err)
			}
		}

		if err := qa.store.SaveFiles(ctx, files...); err != nil {
			return fmt.Errorf("save files: %w", err)
		}

		return nil
	}); err != nil {
		return 0, err
	}

	return len(files), nil
}

func (qa *qaServer) processFile(ctx context.Context, aFile *File) error {
	extractor, ok := qa.extractors[aFile.Extension]
	if !ok {
		return fmt.Errorf("no extractor registered for extension %q", aFile.Extension)
	}

	contents, err := qa.files.Read(aFile.Location)
	if err != nil {
		return fmt.Errorf("opening file: %w", err)
	}
	defer func() {
		if err := contents.Close(); err != nil {
			log.Printf("error closing contents: %s", aFile.Location)
		}
		if err := qa.files.Delete(aFile.Location); err != nil {
			log.Printf("error removing file: %s", aFile.Location)
		}
	}()

	log.Printf("processing file: %s location: %s", aFile.ID, aFile.Location)

	chunks, err := extractor.Extract(ctx, aFile.FileName, contents)
	if err != nil {
		return fmt.Errorf("extracting chunks: %w", err)
	}
	for i := range chunks {
		chunks[i].FileID = aFile.ID
		chunks[i].Metadata.Source = aFile.FileName
		chunks[i].Metadata.Role = string(aFile.Role)
		chunks[i] = chunks[i].Sanitize()
	}
	aFile.Chunks = chunks

	log.Printf("generating vectors for chunks: %d", len(aFile.Chunks))

	vectors, err := qa.embedder.EmbedChunks(ctx, aFile.Chunks)
	if err != nil {
		return fmt.Errorf("error generating vectors: %w", err)
	}

	log.Printf("generated vectors: %d", len(vectors))

	if err := qa.retriever.SaveChunks(ctx, aFile.Chunks, vectors); err != nil {
		return fmt.Errorf("saving embeddings: %w", err)
	}

	return qa.processingFileSucceeded(ctx, aFile)
}

func (qa *qaServer) processingFileSucceeded(ctx context.Context, aFile *File) error {
	return qa.store.Transactional(ctx, &sql.TxOptions{}, func(ctx context.Context) error {
		if err := aFile.CompleteWithStatus(FileStatusProcessedSuccessfully, "", qa.now()); err != nil {
			return fmt.Errorf("change status: %w", err)
		}
		return qa.store.SaveFiles(ctx, aFile)
	})
}

func (qa *qaServer) processingFileFailed(ctx context.Context, aFile *File, perr error) error {
	return qa.store.Transactional(ctx, &sql.TxOptions{}, func(ctx context.Context) error {
		if err := aFile.CompleteWithStatus(FileStatusProcessingFailed, perr.Error(), qa.now()); err != nil {
			return fmt.Errorf("change status: %w", err)
		}
		return qa.store.SaveFiles(ctx, aFile)
	})
}
