// Package postgres is the wallet store's pgx-backed implementation: a
// thin SQL mapping over store.Store, plus the RingLookup adapter the
// transaction validator uses to resolve ring members from the wallet's
// own enote table rather than the daemon.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salvium/wallet-core/internal/cryptoops"
	"github.com/salvium/wallet-core/internal/store"
	"github.com/salvium/wallet-core/internal/txvalidator"
)

//go:embed schema.sql
var schemaSQL string

// Store is a pgxpool-backed store.Store.
type Store struct {
	pool *pgxpool.Pool
}

// Connect opens the pool and verifies connectivity with a ping.
func Connect(ctx context.Context, connStr string) (*Store, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("store/postgres: unable to connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store/postgres: ping failed: %w", err)
	}
	log.Println("store/postgres: connected to wallet database")
	return &Store{pool: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// InitSchema applies the embedded schema; every statement is
// idempotent (CREATE ... IF NOT EXISTS), so this is safe to call on
// every startup.
func (s *Store) InitSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("store/postgres: schema init: %w", err)
	}
	log.Println("store/postgres: schema ready")
	return nil
}

func (s *Store) PutOutput(ctx context.Context, e store.Enote) error {
	oneTime := e.OneTimeAddress.Compress()
	commitment := e.AmountCommitment.Compress()
	ephemeral := e.EphemeralPubkey.Compress()
	mask := e.Mask.Bytes()

	const sql = `
		INSERT INTO enotes
			(key_image, one_time_address, amount_commitment, ephemeral_pubkey,
			 amount, mask, era, asset_type, subaddr_major, subaddr_minor,
			 block_height, global_index, output_index_in_tx, is_coinbase, is_spent, spending_tx_hash,
			 spent_height, is_frozen)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		ON CONFLICT (key_image) DO UPDATE SET
			is_spent = EXCLUDED.is_spent,
			spending_tx_hash = EXCLUDED.spending_tx_hash,
			spent_height = EXCLUDED.spent_height,
			is_frozen = EXCLUDED.is_frozen
	`
	var spendingTx []byte
	var spentHeight *int64
	if e.IsSpent {
		spendingTx = e.SpendingTxHash[:]
		h := int64(e.SpentHeight)
		spentHeight = &h
	}

	_, err := s.pool.Exec(ctx, sql,
		e.KeyImage[:], oneTime[:], commitment[:], ephemeral[:],
		int64(e.Amount), mask[:], int16(e.Era), e.AssetType,
		int32(e.SubaddrMajor), int32(e.SubaddrMinor),
		int64(e.BlockHeight), int64(e.GlobalIndex), int64(e.OutputIndexInTx), e.IsCoinbase, e.IsSpent,
		spendingTx, spentHeight, e.IsFrozen,
	)
	if err != nil {
		return fmt.Errorf("store/postgres: put output: %w", err)
	}
	return nil
}

func (s *Store) GetOutput(ctx context.Context, keyImage [32]byte) (store.Enote, error) {
	const sql = `
		SELECT key_image, one_time_address, amount_commitment, ephemeral_pubkey,
			   amount, mask, era, asset_type, subaddr_major, subaddr_minor,
			   block_height, global_index, output_index_in_tx, is_coinbase, is_spent, spending_tx_hash,
			   spent_height, is_frozen
		FROM enotes WHERE key_image = $1
	`
	row := s.pool.QueryRow(ctx, sql, keyImage[:])
	e, err := scanEnote(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.Enote{}, store.ErrNotFound
	}
	if err != nil {
		return store.Enote{}, fmt.Errorf("store/postgres: get output: %w", err)
	}
	return e, nil
}

func (s *Store) MarkOutputSpent(ctx context.Context, keyImage [32]byte, spendingTx [32]byte, spentHeight uint64) error {
	const sql = `
		UPDATE enotes SET is_spent = TRUE, spending_tx_hash = $2, spent_height = $3
		WHERE key_image = $1
	`
	tag, err := s.pool.Exec(ctx, sql, keyImage[:], spendingTx[:], int64(spentHeight))
	if err != nil {
		return fmt.Errorf("store/postgres: mark spent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) GetOutputs(ctx context.Context, filter store.OutputFilter) ([]store.Enote, error) {
	sql := `
		SELECT key_image, one_time_address, amount_commitment, ephemeral_pubkey,
			   amount, mask, era, asset_type, subaddr_major, subaddr_minor,
			   block_height, global_index, output_index_in_tx, is_coinbase, is_spent, spending_tx_hash,
			   spent_height, is_frozen
		FROM enotes WHERE 1=1
	`
	var args []any
	if filter.AssetType != "" {
		args = append(args, filter.AssetType)
		sql += fmt.Sprintf(" AND asset_type = $%d", len(args))
	}
	if filter.SpentState != nil {
		args = append(args, *filter.SpentState)
		sql += fmt.Sprintf(" AND is_spent = $%d", len(args))
	}
	if filter.Frozen != nil {
		args = append(args, *filter.Frozen)
		sql += fmt.Sprintf(" AND is_frozen = $%d", len(args))
	}
	sql += " ORDER BY block_height ASC"

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("store/postgres: get outputs: %w", err)
	}
	defer rows.Close()

	var out []store.Enote
	for rows.Next() {
		e, err := scanEnote(rows)
		if err != nil {
			return nil, fmt.Errorf("store/postgres: scan output: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEnote(row rowScanner) (store.Enote, error) {
	var e store.Enote
	var keyImage, oneTime, commitment, ephemeral, mask []byte
	var era int16
	var subMajor, subMinor int32
	var amount, blockHeight, globalIndex, outputIndexInTx int64
	var spendingTx []byte
	var spentHeight *int64

	err := row.Scan(&keyImage, &oneTime, &commitment, &ephemeral,
		&amount, &mask, &era, &e.AssetType, &subMajor, &subMinor,
		&blockHeight, &globalIndex, &outputIndexInTx, &e.IsCoinbase, &e.IsSpent, &spendingTx,
		&spentHeight, &e.IsFrozen)
	if err != nil {
		return store.Enote{}, err
	}

	copy(e.KeyImage[:], keyImage)
	if p, err := cryptoops.DecompressPoint(oneTime); err == nil {
		e.OneTimeAddress = p
	}
	if p, err := cryptoops.DecompressPoint(commitment); err == nil {
		e.AmountCommitment = p
	}
	if p, err := cryptoops.DecompressPoint(ephemeral); err == nil {
		e.EphemeralPubkey = p
	}
	if sc, err := cryptoops.NewScalarCanonical(mask); err == nil {
		e.Mask = sc
	}
	e.Amount = uint64(amount)
	e.Era = store.Era(era)
	e.SubaddrMajor = uint32(subMajor)
	e.SubaddrMinor = uint32(subMinor)
	e.BlockHeight = uint64(blockHeight)
	e.GlobalIndex = uint64(globalIndex)
	e.OutputIndexInTx = uint64(outputIndexInTx)
	if spendingTx != nil {
		copy(e.SpendingTxHash[:], spendingTx)
	}
	if spentHeight != nil {
		e.SpentHeight = uint64(*spentHeight)
	}
	return e, nil
}

func (s *Store) PutTransaction(ctx context.Context, rec store.TransactionRecord) error {
	const sql = `
		INSERT INTO transactions (tx_hash, block_height, direction, amount, fee, asset_type, confirmed)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (tx_hash) DO UPDATE SET
			block_height = EXCLUDED.block_height, confirmed = EXCLUDED.confirmed
	`
	_, err := s.pool.Exec(ctx, sql, rec.TxHash[:], int64(rec.BlockHeight), string(rec.Direction),
		int64(rec.Amount), int64(rec.Fee), rec.AssetType, rec.Confirmed)
	if err != nil {
		return fmt.Errorf("store/postgres: put transaction: %w", err)
	}
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, txHash [32]byte) (store.TransactionRecord, error) {
	const sql = `
		SELECT tx_hash, block_height, direction, amount, fee, asset_type, confirmed
		FROM transactions WHERE tx_hash = $1
	`
	rec, err := scanTransaction(s.pool.QueryRow(ctx, sql, txHash[:]))
	if errors.Is(err, pgx.ErrNoRows) {
		return store.TransactionRecord{}, store.ErrNotFound
	}
	if err != nil {
		return store.TransactionRecord{}, fmt.Errorf("store/postgres: get transaction: %w", err)
	}
	return rec, nil
}

func (s *Store) GetTransactions(ctx context.Context, filter store.TransactionFilter) ([]store.TransactionRecord, error) {
	sql := `SELECT tx_hash, block_height, direction, amount, fee, asset_type, confirmed FROM transactions WHERE 1=1`
	var args []any
	if filter.AssetType != "" {
		args = append(args, filter.AssetType)
		sql += fmt.Sprintf(" AND asset_type = $%d", len(args))
	}
	if filter.Direction != "" {
		args = append(args, string(filter.Direction))
		sql += fmt.Sprintf(" AND direction = $%d", len(args))
	}
	sql += " ORDER BY block_height DESC"

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("store/postgres: get transactions: %w", err)
	}
	defer rows.Close()

	var out []store.TransactionRecord
	for rows.Next() {
		rec, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("store/postgres: scan transaction: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanTransaction(row rowScanner) (store.TransactionRecord, error) {
	var rec store.TransactionRecord
	var txHash []byte
	var blockHeight, amount, fee int64
	var direction string

	err := row.Scan(&txHash, &blockHeight, &direction, &amount, &fee, &rec.AssetType, &rec.Confirmed)
	if err != nil {
		return store.TransactionRecord{}, err
	}
	copy(rec.TxHash[:], txHash)
	rec.BlockHeight = uint64(blockHeight)
	rec.Direction = store.TxDirection(direction)
	rec.Amount = uint64(amount)
	rec.Fee = uint64(fee)
	return rec, nil
}

func (s *Store) PutBlockHash(ctx context.Context, height uint64, hash [32]byte) error {
	const sql = `
		INSERT INTO block_hashes (height, hash) VALUES ($1, $2)
		ON CONFLICT (height) DO UPDATE SET hash = EXCLUDED.hash
	`
	_, err := s.pool.Exec(ctx, sql, int64(height), hash[:])
	if err != nil {
		return fmt.Errorf("store/postgres: put block hash: %w", err)
	}
	return nil
}

func (s *Store) GetBlockHash(ctx context.Context, height uint64) ([32]byte, error) {
	const sql = `SELECT hash FROM block_hashes WHERE height = $1`
	var hash []byte
	err := s.pool.QueryRow(ctx, sql, int64(height)).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return [32]byte{}, store.ErrNotFound
	}
	if err != nil {
		return [32]byte{}, fmt.Errorf("store/postgres: get block hash: %w", err)
	}
	var out [32]byte
	copy(out[:], hash)
	return out, nil
}

func (s *Store) GetSyncHeight(ctx context.Context) (uint64, error) {
	const sql = `SELECT sync_height FROM sync_state WHERE id = 1`
	var height int64
	if err := s.pool.QueryRow(ctx, sql).Scan(&height); err != nil {
		return 0, fmt.Errorf("store/postgres: get sync height: %w", err)
	}
	return uint64(height), nil
}

func (s *Store) SetSyncHeight(ctx context.Context, height uint64) error {
	const sql = `UPDATE sync_state SET sync_height = $1 WHERE id = 1`
	_, err := s.pool.Exec(ctx, sql, int64(height))
	if err != nil {
		return fmt.Errorf("store/postgres: set sync height: %w", err)
	}
	return nil
}

// Rollback atomically undoes every effect of blocks above height: it
// deletes their block hashes and enotes, and unmarks outputs whose
// spent_height falls in the rolled-back range.
func (s *Store) Rollback(ctx context.Context, height uint64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store/postgres: rollback: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM block_hashes WHERE height > $1`, int64(height)); err != nil {
		return fmt.Errorf("store/postgres: rollback block hashes: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM enotes WHERE block_height > $1`, int64(height)); err != nil {
		return fmt.Errorf("store/postgres: rollback enotes: %w", err)
	}
	const unspend = `
		UPDATE enotes SET is_spent = FALSE, spending_tx_hash = NULL, spent_height = NULL
		WHERE is_spent AND spent_height > $1
	`
	if _, err := tx.Exec(ctx, unspend, int64(height)); err != nil {
		return fmt.Errorf("store/postgres: rollback unspend: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM transactions WHERE block_height > $1`, int64(height)); err != nil {
		return fmt.Errorf("store/postgres: rollback transactions: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *Store) GetBalance(ctx context.Context, assetType string, currentHeight uint64) (store.Balance, error) {
	const sql = `
		SELECT amount, block_height, is_coinbase
		FROM enotes WHERE asset_type = $1 AND NOT is_spent
	`
	rows, err := s.pool.Query(ctx, sql, assetType)
	if err != nil {
		return store.Balance{}, fmt.Errorf("store/postgres: get balance: %w", err)
	}
	defer rows.Close()

	var bal store.Balance
	for rows.Next() {
		var amount, blockHeight int64
		var isCoinbase bool
		if err := rows.Scan(&amount, &blockHeight, &isCoinbase); err != nil {
			return store.Balance{}, fmt.Errorf("store/postgres: scan balance row: %w", err)
		}
		bal.Total += uint64(amount)
		if store.Unlocked(uint64(blockHeight), currentHeight, isCoinbase) {
			bal.Unlocked += uint64(amount)
		} else {
			bal.Locked += uint64(amount)
		}
	}
	return bal, rows.Err()
}

// FetchRingMembers implements txvalidator.RingLookup against the
// enotes table, looked up by asset type and global index. That table
// holds the wallet's own recognized outputs (spent or not), not the
// chain's full output set, so a ring member the wallet does not own is
// not found and the lookup returns an error.
func (s *Store) FetchRingMembers(ctx context.Context, assetType string, globalIndices []uint64) ([]txvalidator.RingMember, error) {
	const sql = `
		SELECT one_time_address, amount_commitment
		FROM enotes WHERE asset_type = $1 AND global_index = $2
	`
	members := make([]txvalidator.RingMember, len(globalIndices))
	for i, idx := range globalIndices {
		var oneTime, commitment []byte
		err := s.pool.QueryRow(ctx, sql, assetType, int64(idx)).Scan(&oneTime, &commitment)
		if err != nil {
			return nil, fmt.Errorf("store/postgres: fetch ring member %d: %w", idx, err)
		}
		p, err := cryptoops.DecompressPoint(oneTime)
		if err != nil {
			return nil, fmt.Errorf("store/postgres: ring member %d: bad one-time address: %w", idx, err)
		}
		c, err := cryptoops.DecompressPoint(commitment)
		if err != nil {
			return nil, fmt.Errorf("store/postgres: ring member %d: bad commitment: %w", idx, err)
		}
		members[i] = txvalidator.RingMember{OneTimeAddress: p, Commitment: c}
	}
	return members, nil
}
