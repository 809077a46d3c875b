package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Attachment handling is deliberately narrow: plain-text documents only.
// Binary formats (PDF, images) are out of scope for this relay.
const maxAttachmentBytes = 64 * 1024

var textExtensions = map[string]struct{}{
	".txt": {}, ".md": {}, ".csv": {}, ".log": {}, ".json": {}, ".yaml": {}, ".yml": {},
}

var errUnsupportedFile = errors.New("only plain-text attachments are supported (txt, md, csv, log, json, yaml)")

// extractAttachment downloads a text document attached to the message and
// returns its content plus a short acknowledgement for the channel. No
// attachment returns empty strings.
func (r *RealTelegramBotAdapter) extractAttachment(ctx context.Context, message *tgbotapi.Message) (content, note string, err error) {
	doc := message.Document
	if doc == nil {
		return "", "", nil
	}
	if !isTextDocument(doc) {
		return "", "", errUnsupportedFile
	}
	if doc.FileSize > maxAttachmentBytes {
		return "", "", fmt.Errorf("file too large (%d bytes, limit %d)", doc.FileSize, maxAttachmentBytes)
	}

	url, err := r.bot.GetFileDirectURL(doc.FileID)
	if err != nil {
		return "", "", fmt.Errorf("resolve file: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("download: http %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAttachmentBytes+1))
	if err != nil {
		return "", "", fmt.Errorf("read body: %w", err)
	}
	if len(data) > maxAttachmentBytes {
		return "", "", fmt.Errorf("file too large (limit %d bytes)", maxAttachmentBytes)
	}
	if !utf8.Valid(data) {
		return "", "", errUnsupportedFile
	}

	return string(data), fmt.Sprintf("Processed: %s (%d bytes)", doc.FileName, len(data)), nil
}

func isTextDocument(doc *tgbotapi.Document) bool {
	if strings.HasPrefix(doc.MimeType, "text/") {
		return true
	}
	_, ok := textExtensions[strings.ToLower(filepath.Ext(doc.FileName))]
	return ok
}
