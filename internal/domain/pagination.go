package domain

import (
	"encoding/base64"
	"strconv"
)

// Page-size bounds for list operations.
const (
	DefaultMaxResults = 100
	MaxMaxResults     = 1000
)

// PageRequest holds pagination parameters for list operations. The token is
// opaque to clients; internally it is a base64-encoded integer offset.
type PageRequest struct {
	MaxResults int
	PageToken  string
}

// Offset decodes the page token. Empty or garbage tokens restart from 0
// rather than failing the request.
func (p PageRequest) Offset() int {
	decoded, err := base64.StdEncoding.DecodeString(p.PageToken)
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(string(decoded))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Limit returns the effective page size, clamped to [1, MaxMaxResults].
func (p PageRequest) Limit() int {
	switch {
	case p.MaxResults <= 0:
		return DefaultMaxResults
	case p.MaxResults > MaxMaxResults:
		return MaxMaxResults
	default:
		return p.MaxResults
	}
}

// EncodePageToken creates an opaque token for the given offset. Offset 0 is
// the first page and needs no token.
func EncodePageToken(offset int) string {
	if offset <= 0 {
		return ""
	}
	return base64.StdEncoding.EncodeToString(strconv.AppendInt(nil, int64(offset), 10))
}

// NextPageToken returns the token for the page after the current one, or the
// empty string when offset+limit already covers total.
func NextPageToken(offset, limit int, total int64) string {
	if next := offset + limit; int64(next) < total {
		return EncodePageToken(next)
	}
	return ""
}
