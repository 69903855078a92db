package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"menulens/internal/logging"
	"menulens/internal/menu"
)

// multipartOverhead is allowed on top of the file limit for boundaries,
// headers and the language field.
const multipartOverhead int64 = 1 << 20

// Processor runs one submission. *pipeline.Pipeline implements it.
type Processor interface {
	Process(ctx context.Context, payload menu.UploadPayload) menu.Outcome
}

// ProxyHandler serves the proxy hop endpoint.
type ProxyHandler struct {
	processor       Processor
	maxBodyBytes    int64
	tooLarge        string
	defaultLanguage string
	logger          logging.Logger
}

// NewProxyHandler builds a handler accepting files up to maxFileSize.
func NewProxyHandler(processor Processor, maxFileSize int64, defaultLanguage string, logger logging.Logger) *ProxyHandler {
	if maxFileSize <= 0 {
		maxFileSize = menu.DefaultMaxFileSize
	}
	if strings.TrimSpace(defaultLanguage) == "" {
		defaultLanguage = menu.DefaultLanguage
	}
	return &ProxyHandler{
		processor:       processor,
		maxBodyBytes:    maxFileSize + multipartOverhead,
		tooLarge:        menu.TooLargeMessage(maxFileSize),
		defaultLanguage: defaultLanguage,
		logger:          logging.OrNop(logger),
	}
}

// HandleScan processes POST /api/proxyWebhook.
func (h *ProxyHandler) HandleScan(c *gin.Context) {
	ctx := c.Request.Context()
	logger := logging.FromContext(ctx, h.logger)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)
	file, header, err := c.Request.FormFile(menu.InboundFileField)
	if err != nil {
		if isBodyTooLarge(err) {
			logger.Info("rejected upload: body larger than %d bytes", h.maxBodyBytes)
			writeOutcome(c, menu.Fail(menu.KindInputInvalid, h.tooLarge))
			return
		}
		logger.Info("rejected upload: no %s field: %v", menu.InboundFileField, err)
		writeOutcome(c, menu.Fail(menu.KindInputInvalid, menu.MsgSelectImage))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		logger.Warn("failed to read uploaded file: %v", err)
		writeOutcome(c, menu.Fail(menu.KindInputInvalid, menu.MsgSelectImage))
		return
	}

	language := c.Request.FormValue(menu.LanguageField)
	if strings.TrimSpace(language) == "" {
		language = h.defaultLanguage
	}
	payload := menu.NewUploadPayload(data, header.Header.Get("Content-Type"), header.Filename, language)
	h.logSniffedType(logger, payload)

	writeOutcome(c, h.processor.Process(ctx, payload))
}

// logSniffedType notes uploads whose bytes disagree with the declared type.
// The declared type alone decides validation.
func (h *ProxyHandler) logSniffedType(logger logging.Logger, payload menu.UploadPayload) {
	if len(payload.Data) == 0 || payload.ContentType == "" {
		return
	}
	detected := mimetype.Detect(payload.Data)
	if detected.Is(payload.ContentType) {
		return
	}
	logger.Info("upload %q declared %s but content looks like %s", payload.FileName, payload.ContentType, detected.String())
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}
