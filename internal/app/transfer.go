package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jsamuelsen/quotebook/internal/domain"
)

// ExportFileName is the suggested name of an exported collection.
const ExportFileName = "quotes.json"

// Export is a serialized quote collection ready to be saved.
type Export struct {
	FileName string
	Data     []byte
	Count    int
}

// ImportReport summarises an import.
type ImportReport struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// EncodeQuotes renders quotes as a JSON array indented by two spaces.
func EncodeQuotes(quotes []domain.Quote) ([]byte, error) {
	if quotes == nil {
		quotes = []domain.Quote{}
	}

	data, err := json.MarshalIndent(quotes, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding quotes: %w", err)
	}

	return data, nil
}

// DecodeImport parses an import payload. The payload must be a JSON array;
// elements that are not objects with non-empty text and category are skipped
// and counted. Whitespace around both fields is trimmed.
func DecodeImport(r io.Reader) ([]domain.Quote, int, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, domain.NewParseError("import", "reading payload failed", err)
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, 0, domain.NewParseError("import", "payload is not a JSON array", nil)
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		return nil, 0, domain.NewParseError("import", "payload is not a JSON array", err)
	}

	quotes := make([]domain.Quote, 0, len(elements))
	skipped := 0

	for _, element := range elements {
		var candidate struct {
			Text     *string `json:"text"`
			Category *string `json:"category"`
		}

		if json.Unmarshal(element, &candidate) != nil || candidate.Text == nil || candidate.Category == nil {
			skipped++
			continue
		}

		q, err := domain.NewQuote(*candidate.Text, *candidate.Category)
		if err != nil {
			skipped++
			continue
		}

		quotes = append(quotes, q)
	}

	return quotes, skipped, nil
}
