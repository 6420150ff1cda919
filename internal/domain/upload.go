package domain

import (
	"fmt"
	"io"

	"github.com/google/uuid"
)

// MaxChunkSize is the largest number of bytes the object store accepts in a
// single range write.
const MaxChunkSize = 4_000_000

type File struct {
	Name    string      `validate:"required,max=255"`
	Size    int64       `validate:"gte=0"`
	Content io.ReaderAt `validate:"required"`
}

// Section returns the bytes of the chunk as a reader.
func (f File) Section(c Chunk) *io.SectionReader {
	return io.NewSectionReader(f.Content, c.Start, c.Len())
}

// Chunk is the half-open byte range [Start, End) of a file.
type Chunk struct {
	Index int
	Start int64
	End   int64
}

func (c Chunk) Len() int64 {
	return c.End - c.Start
}

// Range renders the inclusive byte range header value.
func (c Chunk) Range() string {
	return fmt.Sprintf("bytes=%d-%d", c.Start, c.End-1)
}

type UploadBatch struct {
	ID     string
	File   File
	Chunks []Chunk
}

func NewUploadBatch(file File, chunkSize int64) *UploadBatch {
	return &UploadBatch{
		ID:     uuid.New().String(),
		File:   file,
		Chunks: SplitChunks(file.Size, chunkSize),
	}
}

// SplitChunks cuts size bytes into ceil(size/chunkSize) contiguous ranges.
// The last range always ends at size and no range is empty.
func SplitChunks(size, chunkSize int64) []Chunk {
	if size <= 0 {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = MaxChunkSize
	}

	count := (size + chunkSize - 1) / chunkSize
	chunks := make([]Chunk, 0, count)
	for i := int64(0); i < count; i++ {
		end := (i + 1) * chunkSize
		if i == count-1 {
			end = size
		}
		chunks = append(chunks, Chunk{
			Index: int(i),
			Start: i * chunkSize,
			End:   end,
		})
	}
	return chunks
}
