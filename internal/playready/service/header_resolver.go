package service

import (
	"log/slog"
	"strings"

	"github.com/allisson/playready-proxy/internal/playready/domain"
)

// headerResolver implements HeaderResolver.
type headerResolver struct {
	logger *slog.Logger
}

// Resolve tries, in order:
//  1. the payload itself when it already starts with <WRMHEADER
//  2. base64, then UTF-16LE, then the <WRMHEADER ... </WRMHEADER> substring
//  3. base64, then pssh boxes or a PlayReady Object, taking the first header
//
// When nothing matches it fails with ErrHeaderResolutionFailed. The raw payload
// is never returned as a guess.
func (h *headerResolver) Resolve(payload string) (string, error) {
	if strings.HasPrefix(payload, domain.WRMHeaderOpenTag) {
		h.logger.Debug("pssh is a raw wrm header")
		return payload, nil
	}

	raw, err := DecodeBase64(payload)
	if err != nil {
		h.logger.Debug("pssh is neither a wrm header nor base64")
		return "", domain.ErrHeaderResolutionFailed
	}

	if header, ok := extractEmbeddedHeader(raw); ok {
		h.logger.Debug("wrm header extracted from utf-16 payload")
		return header, nil
	}

	headers, err := ParsePSSH(raw)
	if err != nil {
		h.logger.Debug("pssh parsing failed", slog.Any("error", err))
		return "", domain.ErrHeaderResolutionFailed
	}
	if len(headers) == 0 {
		h.logger.Debug("pssh parsed but carries no wrm header")
		return "", domain.ErrHeaderResolutionFailed
	}

	h.logger.Debug("wrm header extracted from pssh box", slog.Int("headers", len(headers)))
	return headers[0], nil
}

// extractEmbeddedHeader decodes raw as UTF-16LE and returns the first
// <WRMHEADER ... </WRMHEADER> substring, delimiters included.
func extractEmbeddedHeader(raw []byte) (string, bool) {
	text, err := decodeUTF16LE(raw)
	if err != nil {
		return "", false
	}

	start := strings.Index(text, domain.WRMHeaderOpenTag)
	if start < 0 {
		return "", false
	}
	end := strings.Index(text[start:], domain.WRMHeaderCloseTag)
	if end < 0 {
		return "", false
	}
	return text[start : start+end+len(domain.WRMHeaderCloseTag)], true
}

// NewHeaderResolver creates a HeaderResolver.
func NewHeaderResolver(logger *slog.Logger) HeaderResolver {
	return &headerResolver{logger: logger}
}
