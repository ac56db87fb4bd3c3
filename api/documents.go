package api

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/ragflow/errors"
	"github.com/kbukum/ragflow/ingest"
	"github.com/kbukum/ragflow/retrieval"
	"github.com/kbukum/ragflow/server"
)

// UploadDocument handles POST /documents/upload: a multipart form with a
// PDF in "file" and an optional target "collection".
func (h *Handler) UploadDocument(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case stderrors.As(err, &tooLarge):
			server.RespondWithError(c, errors.PayloadTooLarge(h.MaxUploadBytes))
		case stderrors.Is(err, http.ErrMissingFile):
			server.RespondWithError(c, errors.MissingField("file"))
		default:
			server.RespondWithError(c, errors.InvalidInput("file", "expected a multipart form with a file field").WithCause(err))
		}
		return
	}
	if fh.Size > h.MaxUploadBytes {
		server.RespondWithError(c, errors.PayloadTooLarge(h.MaxUploadBytes))
		return
	}

	f, err := fh.Open()
	if err != nil {
		server.RespondWithError(c, errors.Internal(err))
		return
	}
	defer f.Close()

	doc, err := h.Documents.Upload(c.Request.Context(), ingest.Upload{
		Filename:   fh.Filename,
		Collection: c.PostForm("collection"),
		Body:       f,
	})
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondCreated(c, doc)
}

func (h *Handler) ListDocuments(c *gin.Context) {
	docs, err := h.Documents.List(c.Request.Context())
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	if docs == nil {
		docs = []retrieval.Document{}
	}
	server.RespondOK(c, gin.H{"documents": docs})
}

func (h *Handler) DeleteDocument(c *gin.Context) {
	if err := h.Documents.Delete(c.Request.Context(), c.Param("id")); err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondNoContent(c)
}
