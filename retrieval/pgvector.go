package retrieval

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/kbukum/ragflow/dag"
	"github.com/kbukum/ragflow/errors"
	"github.com/kbukum/ragflow/logger"
	"github.com/kbukum/ragflow/resilience"
)

const schema = `
CREATE EXTENSION IF NOT EXISTS vector;
CREATE TABLE IF NOT EXISTS rag_documents (
	id          TEXT PRIMARY KEY,
	filename    TEXT NOT NULL,
	collection  TEXT NOT NULL,
	chunks      INTEGER NOT NULL DEFAULT 0,
	uploaded_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS rag_documents_collection_idx ON rag_documents (collection);
CREATE TABLE IF NOT EXISTS rag_chunks (
	document_id TEXT NOT NULL REFERENCES rag_documents (id) ON DELETE CASCADE,
	idx         INTEGER NOT NULL,
	content     TEXT NOT NULL,
	embedding   vector(%d) NOT NULL,
	PRIMARY KEY (document_id, idx)
);`

// PGStore is a Store on PostgreSQL with the pgvector extension.
type PGStore struct {
	pool *pgxpool.Pool
	cfg  Config
	log  *logger.Logger
}

var _ Store = (*PGStore)(nil)

// NewPGStore connects to cfg.DSN, retrying while the database comes up, and
// creates the schema when cfg.AutoMigrate is set.
func NewPGStore(ctx context.Context, cfg Config, log *logger.Logger) (*PGStore, error) {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	log = log.WithComponent("vectorstore")

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, errors.InvalidInput("vector_store.dsn", err.Error())
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout

	retry := cfg.Retry
	retry.RetryIf = func(error) bool { return true }
	retry.OnRetry = func(attempt int, err error, backoff time.Duration) {
		log.Warn("vector store connection failed, retrying", map[string]interface{}{
			"attempt": attempt, "backoff": backoff.String(), "error": err.Error(),
		})
	}

	pool, err := resilience.Retry(ctx, retry, func(ctx context.Context) (*pgxpool.Pool, error) {
		p, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return nil, err
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return nil, err
		}
		return p, nil
	})
	if err != nil {
		return nil, errors.DatabaseError(err)
	}

	s := &PGStore{pool: pool, cfg: cfg, log: log}
	if cfg.AutoMigrate {
		if err := s.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
	}
	log.Info("vector store connected", map[string]interface{}{
		"backend": BackendPGVector, "dimensions": cfg.Dimensions, "max_conns": cfg.MaxConns,
	})
	return s, nil
}

// Migrate creates the extension, tables and indexes if they do not exist.
func (s *PGStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, fmt.Sprintf(schema, s.cfg.Dimensions)); err != nil {
		return errors.DatabaseError(err)
	}
	return nil
}

func (s *PGStore) SaveDocument(ctx context.Context, doc Document, chunks []Chunk) error {
	if doc.Collection == "" {
		doc.Collection = DefaultCollection
	}
	for _, c := range chunks {
		if len(c.Embedding) != s.cfg.Dimensions {
			return errors.InvalidInput("embedding",
				fmt.Sprintf("chunk %d has %d dimensions, store expects %d", c.Index, len(c.Embedding), s.cfg.Dimensions))
		}
	}

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO rag_documents (id, filename, collection, chunks, uploaded_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET filename = EXCLUDED.filename,
				collection = EXCLUDED.collection, chunks = EXCLUDED.chunks, uploaded_at = EXCLUDED.uploaded_at`,
			doc.ID, doc.Filename, doc.Collection, len(chunks), doc.UploadedAt); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM rag_chunks WHERE document_id = $1`, doc.ID); err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for _, c := range chunks {
			batch.Queue(`INSERT INTO rag_chunks (document_id, idx, content, embedding) VALUES ($1, $2, $3, $4)`,
				doc.ID, c.Index, c.Text, pgvector.NewVector(c.Embedding))
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return errors.DatabaseError(err)
	}
	return nil
}

func (s *PGStore) ListDocuments(ctx context.Context) ([]Document, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, filename, collection, chunks, uploaded_at
		FROM rag_documents ORDER BY uploaded_at DESC, id`)
	if err != nil {
		return nil, errors.DatabaseError(err)
	}
	docs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Document, error) {
		var d Document
		err := row.Scan(&d.ID, &d.Filename, &d.Collection, &d.Chunks, &d.UploadedAt)
		return d, err
	})
	if err != nil {
		return nil, errors.DatabaseError(err)
	}
	return docs, nil
}

func (s *PGStore) DeleteDocument(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM rag_documents WHERE id = $1`, id)
	if err != nil {
		return errors.DatabaseError(err)
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("document", id)
	}
	return nil
}

func (s *PGStore) HasCollection(ctx context.Context, collection string) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM rag_documents WHERE collection = $1 OR id = $1)`, collection).Scan(&ok)
	if err != nil {
		return false, errors.DatabaseError(err)
	}
	return ok, nil
}

// Search orders by L2 distance and reports 1/(1+distance) as the score.
func (s *PGStore) Search(ctx context.Context, collection string, embedding []float32, topK int) ([]dag.Passage, error) {
	if topK <= 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT c.document_id, c.idx, c.content, d.filename, c.embedding <-> $1 AS distance
		FROM rag_chunks c JOIN rag_documents d ON d.id = c.document_id
		WHERE d.collection = $2 OR d.id = $2
		ORDER BY distance, c.document_id, c.idx
		LIMIT $3`,
		pgvector.NewVector(embedding), collection, topK)
	if err != nil {
		return nil, errors.DatabaseError(err)
	}
	passages, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (dag.Passage, error) {
		var (
			docID, text, filename string
			idx                   int
			distance              float64
		)
		if err := row.Scan(&docID, &idx, &text, &filename, &distance); err != nil {
			return dag.Passage{}, err
		}
		return dag.Passage{
			ID:         docID + ":" + strconv.Itoa(idx),
			Collection: collection,
			Text:       text,
			Source:     filename,
			Score:      1 / (1 + distance),
		}, nil
	})
	if err != nil {
		return nil, errors.DatabaseError(err)
	}
	return passages, nil
}

func (s *PGStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PGStore) Close() {
	s.pool.Close()
}
