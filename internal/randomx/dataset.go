package randomx

import (
	"context"
	"encoding/binary"
	"fmt"
)

// DatasetItemSize is the byte width of one dataset entry (8 little-
// endian 64-bit words).
const DatasetItemSize = 64

// DatasetItemCount is RandomX's fixed full-dataset item count: 2 GiB
// of 64-byte items.
const DatasetItemCount = (2 * 1024 * 1024 * 1024) / DatasetItemSize

// Dataset is the (possibly partial) precomputed 2 GiB full-mode
// buffer. A full Context built with Mode Full fills every item; tests
// and tooling may build a Dataset covering only a subrange via
// InitRange, matching how a real node would shard dataset construction
// across worker goroutines.
type Dataset struct {
	cache  *Cache
	base   uint64 // first item number this Dataset covers
	memory []byte // len == count*DatasetItemSize
}

// NewDataset builds the complete 2 GiB dataset from cache.
func NewDataset(ctx context.Context, cache *Cache) (*Dataset, error) {
	return NewDatasetRange(ctx, cache, 0, DatasetItemCount)
}

// NewDatasetRange builds only [base, base+count) of the dataset,
// checking ctx between items.
func NewDatasetRange(ctx context.Context, cache *Cache, base, count uint64) (*Dataset, error) {
	d := &Dataset{cache: cache, base: base, memory: make([]byte, count*DatasetItemSize)}
	for i := uint64(0); i < count; i++ {
		if i%1024 == 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("randomx: dataset init cancelled: %w", ctx.Err())
			default:
			}
		}
		item := datasetItem(cache, base+i)
		off := i * DatasetItemSize
		for w := 0; w < 8; w++ {
			binary.LittleEndian.PutUint64(d.memory[off+uint64(w*8):off+uint64(w*8+8)], item[w])
		}
	}
	return d, nil
}

// ReadItem returns the dataset entry at itemNumber and whether this
// Dataset actually covers it.
func (d *Dataset) ReadItem(itemNumber uint64) ([8]uint64, bool) {
	if itemNumber < d.base || itemNumber >= d.base+uint64(len(d.memory))/DatasetItemSize {
		return [8]uint64{}, false
	}
	off := (itemNumber - d.base) * DatasetItemSize
	var item [8]uint64
	for w := 0; w < 8; w++ {
		item[w] = binary.LittleEndian.Uint64(d.memory[off+uint64(w*8) : off+uint64(w*8+8)])
	}
	return item, true
}
