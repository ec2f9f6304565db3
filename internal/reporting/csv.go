package reporting

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"epic-nft-gallery/internal/domain"
)

// RenderCSV renders token records as CSV string, one row per token.
func RenderCSV(records []domain.TokenRecord) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"token_id", "name", "description", "owner", "image"}); err != nil {
		return "", err
	}
	for _, r := range records {
		row := []string{
			strconv.FormatUint(r.TokenID, 10),
			r.Name,
			r.Description,
			r.Owner,
			r.Image,
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
