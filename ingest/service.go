package ingest

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kbukum/ragflow/errors"
	"github.com/kbukum/ragflow/logger"
	"github.com/kbukum/ragflow/retrieval"
	"github.com/kbukum/ragflow/validation"
)

// Limits on names stored with a document.
const (
	MaxFilenameLength   = 255
	MaxCollectionLength = 100
)

// Upload is one file handed to the service.
type Upload struct {
	Filename string
	// Collection defaults to retrieval.DefaultCollection.
	Collection string
	Body       io.Reader
}

// Service ingests and manages documents.
type Service struct {
	store    retrieval.Store
	embedder retrieval.Embedder
	extract  TextExtractor
	cfg      Config
	log      *logger.Logger
	now      func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithExtractor replaces the PDF text extractor.
func WithExtractor(fn TextExtractor) Option {
	return func(s *Service) { s.extract = fn }
}

func WithLogger(log *logger.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithClock sets the upload timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store retrieval.Store, embedder retrieval.Embedder, cfg Config, opts ...Option) *Service {
	cfg.ApplyDefaults()
	s := &Service{
		store:    store,
		embedder: embedder,
		extract:  ExtractPDFText,
		cfg:      cfg,
		log:      logger.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithComponent("ingest")
	return s
}

// Upload stores a PDF and returns its document record.
func (s *Service) Upload(ctx context.Context, up Upload) (*retrieval.Document, error) {
	ext := strings.ToLower(filepath.Ext(up.Filename))
	if ext != ".pdf" {
		return nil, errors.UnsupportedMedia(ext, ".pdf")
	}
	v := validation.New().
		MaxLength("filename", filepath.Base(up.Filename), MaxFilenameLength).
		MaxLength("collection", up.Collection, MaxCollectionLength)
	if err := v.Validate(); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(up.Body, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, errors.InvalidInput("file", "could not read upload").WithCause(err)
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, errors.PayloadTooLarge(s.cfg.MaxUploadBytes)
	}

	text, err := s.extract(data)
	if err != nil {
		return nil, errors.InvalidInput("file", "could not parse PDF").WithCause(err)
	}
	pieces := Split(text, s.cfg.ChunkSize, s.cfg.ChunkOverlap)
	if len(pieces) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no text could be extracted from the PDF", http.StatusBadRequest)
	}

	chunks, err := s.embed(ctx, pieces)
	if err != nil {
		return nil, err
	}

	collection := up.Collection
	if collection == "" {
		collection = retrieval.DefaultCollection
	}
	doc := retrieval.Document{
		ID:         uuid.NewString(),
		Filename:   filepath.Base(up.Filename),
		Collection: collection,
		Chunks:     len(chunks),
		UploadedAt: s.now().UTC(),
	}
	if err := s.store.SaveDocument(ctx, doc, chunks); err != nil {
		return nil, err
	}

	s.log.Info("document ingested", map[string]interface{}{
		"doc_id": doc.ID, "filename": doc.Filename, "collection": doc.Collection,
		"chunks": doc.Chunks, "bytes": len(data),
	})
	return &doc, nil
}

func (s *Service) embed(ctx context.Context, pieces []string) ([]retrieval.Chunk, error) {
	chunks := make([]retrieval.Chunk, len(pieces))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.EmbedConcurrency)
	for i, text := range pieces {
		g.Go(func() error {
			vec, err := s.embedder.Embed(gctx, text)
			if err != nil {
				return err
			}
			chunks[i] = retrieval.Chunk{Index: i, Text: text, Embedding: vec}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return chunks, nil
}

func (s *Service) List(ctx context.Context) ([]retrieval.Document, error) {
	return s.store.ListDocuments(ctx)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteDocument(ctx, id); err != nil {
		return err
	}
	s.log.Info("document deleted", map[string]interface{}{"doc_id": id})
	return nil
}
