package upload

import (
	"context"
	"sort"
	"sync"
	"time"

	"euphro-assets/internal/domain"

	"github.com/wb-go/wbf/zlog"
)

type Engine struct {
	chunkSize    int64
	chunkTimeout time.Duration
	logger       *zlog.Zerolog
}

// NewEngine returns an engine writing chunks of at most chunkSize bytes.
// A positive chunkTimeout bounds each range write on its own.
func NewEngine(chunkSize int64, chunkTimeout time.Duration, logger *zlog.Zerolog) *Engine {
	if chunkSize <= 0 || chunkSize > domain.MaxChunkSize {
		chunkSize = domain.MaxChunkSize
	}
	return &Engine{
		chunkSize:    chunkSize,
		chunkTimeout: chunkTimeout,
		logger:       logger,
	}
}

type Item struct {
	File        domain.File
	Destination Destination
}

// Result is the outcome for one file. A nil Err means the file was uploaded.
type Result struct {
	File string
	Err  error
}

// Upload creates the remote file and then writes every chunk concurrently,
// waiting for all of them to settle.
func (e *Engine) Upload(ctx context.Context, file domain.File, dst Destination) error {
	batch := domain.NewUploadBatch(file, e.chunkSizeFor(dst))

	if err := dst.Create(ctx, file.Size); err != nil {
		e.logger.Error().
			Err(err).
			Str("batch_id", batch.ID).
			Str("file", file.Name).
			Int64("size", file.Size).
			Msg("Failed to create remote file")
		return &UploadInitError{File: file.Name, Err: err}
	}

	failures := e.writeChunks(ctx, batch, dst)
	if len(failures) > 0 {
		if a, ok := dst.(aborter); ok {
			if err := a.Abort(ctx); err != nil {
				e.logger.Warn().Err(err).Str("batch_id", batch.ID).Str("file", file.Name).Msg("Failed to abort upload")
			}
		}
		return &ChunkUploadError{File: file.Name, Failures: failures}
	}

	if f, ok := dst.(finalizer); ok {
		if err := f.Finalize(ctx); err != nil {
			e.logger.Error().Err(err).Str("batch_id", batch.ID).Str("file", file.Name).Msg("Failed to finalize upload")
			return &FinalizeError{File: file.Name, Err: err}
		}
	}

	e.logger.Info().
		Str("batch_id", batch.ID).
		Str("file", file.Name).
		Int64("size", file.Size).
		Int("chunks", len(batch.Chunks)).
		Msg("File uploaded")

	return nil
}

// UploadAll uploads every item independently and concurrently. The results
// are in input order.
func (e *Engine) UploadAll(ctx context.Context, items []Item) []Result {
	results := make([]Result, len(items))

	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(i int, item Item) {
			defer wg.Done()
			results[i] = Result{
				File: item.File.Name,
				Err:  e.Upload(ctx, item.File, item.Destination),
			}
		}(i, item)
	}
	wg.Wait()

	return results
}

func (e *Engine) chunkSizeFor(dst Destination) int64 {
	if p, ok := dst.(partSizer); ok && p.PartSize() > 0 {
		return p.PartSize()
	}
	return e.chunkSize
}

func (e *Engine) writeChunks(ctx context.Context, batch *domain.UploadBatch, dst Destination) []ChunkFailure {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failures []ChunkFailure
	)

	for _, chunk := range batch.Chunks {
		wg.Add(1)
		go func(chunk domain.Chunk) {
			defer wg.Done()

			chunkCtx := ctx
			if e.chunkTimeout > 0 {
				var cancel context.CancelFunc
				chunkCtx, cancel = context.WithTimeout(ctx, e.chunkTimeout)
				defer cancel()
			}

			if err := dst.WriteRange(chunkCtx, chunk, batch.File.Section(chunk)); err != nil {
				e.logger.Error().
					Err(err).
					Str("batch_id", batch.ID).
					Str("file", batch.File.Name).
					Int64("start", chunk.Start).
					Int64("end", chunk.End-1).
					Msg("Failed to upload chunk")

				mu.Lock()
				failures = append(failures, ChunkFailure{Chunk: chunk, Err: err})
				mu.Unlock()
			}
		}(chunk)
	}
	wg.Wait()

	sort.Slice(failures, func(i, j int) bool {
		return failures[i].Chunk.Index < failures[j].Chunk.Index
	})

	return failures
}
