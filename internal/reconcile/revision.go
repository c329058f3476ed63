package reconcile

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/zeebo/blake3"
)

// ErrMalformedRevision ревизия не соответствует формату "<counter>-<hash>"
var ErrMalformedRevision = errors.New("malformed revision")

// hashLen длина hex-дизамбигуатора в генерируемых ревизиях
const hashLen = 16

// Revision разобранная ревизия документа.
// Counter монотонно растет при каждой записи, Hash отличает независимые записи
// с одинаковым counter.
type Revision struct {
	Hash    string
	Counter int64
}

// String собирает ревизию обратно в строку
func (r Revision) String() string {
	return strconv.FormatInt(r.Counter, 10) + "-" + r.Hash
}

// ParseRevision разбирает строку ревизии.
// Counter обязан быть положительным целым, hash непустым.
func ParseRevision(rev string) (Revision, error) {
	counterPart, hash, ok := strings.Cut(rev, "-")
	if !ok || counterPart == "" || hash == "" {
		return Revision{}, fmt.Errorf("%w: %q", ErrMalformedRevision, rev)
	}

	counter, err := strconv.ParseInt(counterPart, 10, 64)
	if err != nil || counter < 1 {
		return Revision{}, fmt.Errorf("%w: %q", ErrMalformedRevision, rev)
	}

	return Revision{Counter: counter, Hash: hash}, nil
}

// Counter возвращает только числовой префикс ревизии
func Counter(rev string) (int64, error) {
	r, err := ParseRevision(rev)
	if err != nil {
		return 0, err
	}
	return r.Counter, nil
}

// NextRevision вычисляет ревизию, следующую за prev.
// Пустой prev означает новый документ (counter = 1).
// Hash берется из blake3 от предыдущей ревизии, тела и флага удаления,
// поэтому две независимые записи с одной базы почти всегда различимы.
func NextRevision(prev string, body []byte, deleted bool) (string, error) {
	var counter int64
	if prev != "" {
		r, err := ParseRevision(prev)
		if err != nil {
			return "", err
		}
		counter = r.Counter
	}

	h := blake3.New()
	_, _ = h.Write([]byte(prev))
	_, _ = h.Write(body)
	if deleted {
		_, _ = h.Write([]byte{1})
	}
	sum := h.Sum(nil)

	return Revision{Counter: counter + 1, Hash: hex.EncodeToString(sum)[:hashLen]}.String(), nil
}

// Compare сравнивает ревизии по counter: -1 если a старше b, 1 если новее, 0 при равенстве.
func Compare(a, b string) (int, error) {
	ca, err := Counter(a)
	if err != nil {
		return 0, err
	}
	cb, err := Counter(b)
	if err != nil {
		return 0, err
	}

	switch {
	case ca < cb:
		return -1, nil
	case ca > cb:
		return 1, nil
	default:
		return 0, nil
	}
}
