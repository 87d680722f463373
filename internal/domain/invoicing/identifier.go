package invoicing

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fatoora/backend/internal/domain/shared"
)

// UID prefixes. Offers start as OF, invoices as IN, credit notes as RE.
const (
	PrefixOffer   = "OF"
	PrefixInvoice = "IN"
	PrefixCredit  = "RE"
)

const uidDateLayout = "060102"

// PrefixFor returns the UID prefix a new document of type t gets
func PrefixFor(t DocumentType) string {
	if t == DocumentTypeOffer {
		return PrefixOffer
	}
	return PrefixInvoice
}

// ComposeUID builds <prefix><yy><mmdd><counter>. counter is the number of
// documents the account already issued on that calendar day.
func ComposeUID(t DocumentType, day time.Time, counter int64) string {
	return PrefixFor(t) + day.Format(uidDateLayout) + strconv.FormatInt(counter, 10)
}

// NextUID returns the identifier for the next document of the account on
// asOf's calendar day. asOf must already be in the fiscal time zone. Callers
// run it inside the account transaction so the count and the insert that
// follows are atomic.
func NextUID(ctx context.Context, docs DocumentRepository, accountID uuid.UUID, t DocumentType, asOf time.Time) (string, error) {
	from := shared.StartOfDay(asOf)
	count, err := docs.CountIssuedBetween(ctx, accountID, from, from.AddDate(0, 0, 1))
	if err != nil {
		return "", fmt.Errorf("count documents issued on %s: %w", from.Format(time.DateOnly), err)
	}
	return ComposeUID(t, from, count), nil
}

// ParsedUID is a decomposed document identifier
type ParsedUID struct {
	Prefix  string
	Day     string
	Counter int64
}

// ParseUID splits a UID into its prefix, yymmdd date and counter
func ParseUID(uid string) (ParsedUID, error) {
	if len(uid) < len(PrefixInvoice)+len(uidDateLayout)+1 {
		return ParsedUID{}, fmt.Errorf("uid %q too short", uid)
	}
	prefix := uid[:2]
	switch prefix {
	case PrefixOffer, PrefixInvoice, PrefixCredit:
	default:
		return ParsedUID{}, fmt.Errorf("uid %q has unknown prefix", uid)
	}
	day := uid[2:8]
	if _, err := time.Parse(uidDateLayout, day); err != nil {
		return ParsedUID{}, fmt.Errorf("uid %q has invalid date: %w", uid, err)
	}
	counter, err := strconv.ParseInt(uid[8:], 10, 64)
	if err != nil || counter < 0 {
		return ParsedUID{}, fmt.Errorf("uid %q has invalid counter", uid)
	}
	return ParsedUID{Prefix: prefix, Day: day, Counter: counter}, nil
}

// RewriteUIDPrefix swaps the leading type prefix only. The date and counter
// are never touched, even if they happen to contain the prefix letters.
func RewriteUIDPrefix(uid, from, to string) (string, error) {
	if !strings.HasPrefix(uid, from) {
		return "", shared.NewInvariantViolation("UID_PREFIX_MISMATCH",
			fmt.Sprintf("identifier %s does not start with %s", uid, from))
	}
	return to + strings.TrimPrefix(uid, from), nil
}
