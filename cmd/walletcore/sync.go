package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/salvium/wallet-core/internal/cryptoops"
	"github.com/salvium/wallet-core/internal/scanner"
	"github.com/salvium/wallet-core/internal/store"
)

// pollInterval sets how often runScanLoop checks the daemon for new
// blocks once it has caught the wallet up to the tip it last saw.
const pollInterval = 10 * time.Second

// runScanLoop drives the wallet's sync forward forever: catch up to
// the daemon's tip, then poll for new blocks. It reimplements
// scanner.Session's per-output dispatch (CARROT-first by 3-byte view
// tag, CN fallback) inline rather than calling Session.ScanRange,
// because Session's async internal goroutine has no per-block
// completion hook — this loop needs one to persist sync_height
// and block_hashes deterministically after each block, not just after
// an entire range finishes.
func runScanLoop(ctx context.Context, e *Engine) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		tip, err := e.daemon.TipHeight(ctx)
		if err != nil {
			log.Printf("walletcore: sync loop: daemon unreachable: %v", err)
			sleepOrDone(ctx, pollInterval)
			continue
		}

		height, err := e.store.GetSyncHeight(ctx)
		if err != nil {
			log.Printf("walletcore: sync loop: read sync height: %v", err)
			sleepOrDone(ctx, pollInterval)
			continue
		}

		if height >= tip {
			sleepOrDone(ctx, pollInterval)
			continue
		}

		next := height + 1
		if err := syncBlock(ctx, e, next); err != nil {
			log.Printf("walletcore: sync loop: block %d: %v", next, err)
			sleepOrDone(ctx, pollInterval)
			continue
		}
	}
}

// syncBlock fetches one block's outputs, recognizes every one against
// the wallet's CN and CARROT key material, persists any matches
// through Engine.scanSink, and advances the wallet's sync cursor.
func syncBlock(ctx context.Context, e *Engine, height uint64) error {
	block, err := e.daemon.GetBlockOutputs(ctx, height)
	if err != nil {
		return err
	}

	var inputCtx []byte
	if block.IsCoinbase {
		inputCtx = scanner.CoinbaseInputContext(height)
	} else if block.FirstKeyImg != nil {
		if point, decErr := cryptoops.DecompressPoint(block.FirstKeyImg[:]); decErr == nil {
			inputCtx = scanner.RingInputContext(point)
		}
	}

	for _, out := range block.Outputs {
		if len(out.ViewTag) == 3 && inputCtx != nil {
			if match, ok := scanner.TryScanCarrot(e.carrot, e.carrotTbl, inputCtx, out); ok {
				e.scanSink(ctx, height, &match, nil, out, block.IsCoinbase)
				continue
			}
		}
		if match, ok := scanner.TryScanCN(e.cn, e.cnTable, out); ok {
			e.scanSink(ctx, height, nil, &match, out, block.IsCoinbase)
		}
	}

	if err := markSpentKeyImages(ctx, e, height, block.SpentKeyImages); err != nil {
		return err
	}

	if err := e.store.PutBlockHash(ctx, height, block.BlockHash); err != nil {
		return err
	}
	return e.store.SetSyncHeight(ctx, height)
}

// markSpentKeyImages closes the gap a pure output scan leaves open: an
// enote can be spent by a transaction this wallet never built itself
// (a restored wallet, a second instance sharing the same keys, or a
// send that crashed after broadcast but before MarkOutputSpent ran).
// Every key image the block's transactions reveal is checked against
// this wallet's own output index; a hit means one of our enotes was
// spent on-chain, whoever built the spending transaction.
func markSpentKeyImages(ctx context.Context, e *Engine, height uint64, spent []scanner.SpentKeyImage) error {
	for _, s := range spent {
		enote, err := e.store.GetOutput(ctx, s.KeyImage)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if enote.IsSpent {
			continue
		}
		if err := e.store.MarkOutputSpent(ctx, s.KeyImage, s.TxHash, height); err != nil {
			return err
		}
	}
	return nil
}

func sleepOrDone(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
