package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// MaxDocumentIDLen ограничение длины id документа
const MaxDocumentIDLen = 512

var (
	ErrInvalidKind       = errors.New("invalid document kind")
	ErrInvalidDocumentID = errors.New("invalid document id")
	ErrInvalidBody       = errors.New("document body must be a JSON object")
)

// ValidateKind проверяет сегмент id вида kind:subkind:uuid
func ValidateKind(kind string) error {
	if kind == "" {
		return fmt.Errorf("%w: empty", ErrInvalidKind)
	}
	if strings.Contains(kind, ":") {
		return fmt.Errorf("%w: %q contains ':'", ErrInvalidKind, kind)
	}
	if strings.IndexFunc(kind, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: %q contains whitespace", ErrInvalidKind, kind)
	}
	return nil
}

// ValidateDocumentID id непустой, без управляющих символов и не длиннее MaxDocumentIDLen
func ValidateDocumentID(id string) error {
	switch {
	case id == "":
		return fmt.Errorf("%w: empty", ErrInvalidDocumentID)
	case len(id) > MaxDocumentIDLen:
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidDocumentID, MaxDocumentIDLen)
	case strings.IndexFunc(id, unicode.IsControl) >= 0:
		return fmt.Errorf("%w: contains control characters", ErrInvalidDocumentID)
	}
	return nil
}

// ValidateBody тело живого документа: JSON объект (null и массивы не подходят)
func ValidateBody(body json.RawMessage) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil || obj == nil {
		return ErrInvalidBody
	}
	return nil
}
