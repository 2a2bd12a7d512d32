package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/asso7/concert_ledger/internal/core/domain"
	"github.com/asso7/concert_ledger/internal/dto"
	"github.com/shopspring/decimal"
)

const (
	nameWidth   = 20
	amountWidth = 12
)

func amount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func statementLine(w io.Writer, name string, row domain.StatementRow) {
	fmt.Fprintf(w, "%-*s%*s%*s%*s\n",
		nameWidth, name,
		amountWidth, amount(row.CurrentCredit),
		amountWidth, amount(row.UpcomingGains),
		amountWidth, amount(row.PotentialCredit))
}

func statementHeader(w io.Writer, title string) {
	fmt.Fprintf(w, "%-*s%*s%*s%*s\n", nameWidth, title, amountWidth, "CURRENT", amountWidth, "UPCOMING", amountWidth, "POTENTIAL")
}

// RenderStatement writes the statement as three aligned sections: members, structures, treasury.
func RenderStatement(w io.Writer, s *domain.Statement) error {
	fmt.Fprintf(w, "Statement as of %s\n\n", s.AsOf.Format(dto.DateLayout))

	statementHeader(w, "MEMBER")
	for _, row := range s.Members {
		statementLine(w, row.Name, row)
	}
	fmt.Fprintln(w)

	statementHeader(w, "STRUCTURE")
	for _, row := range s.Structures {
		name := row.Name
		if row.IsPaymentMethod {
			name += " *"
		}
		statementLine(w, name, row)
	}
	fmt.Fprintln(w, strings.Repeat("-", nameWidth+3*amountWidth))
	statementLine(w, "Treasury", s.Treasury)
	_, err := fmt.Fprintln(w, "\n* payment method")
	return err
}

// RenderTransition summarises a booking transition.
func RenderTransition(w io.Writer, r *dto.TransitionResult) error {
	b := r.Booking
	state := "unsettled"
	if b.Settled {
		state = "settled"
	}
	fmt.Fprintf(w, "Booking %s (%s, %s): %s\n", b.BookingID, b.Date.Format(dto.DateLayout), b.Venue, state)

	if r.Skipped {
		fmt.Fprintln(w, "Nothing to share yet: no proceeds recorded.")
	} else {
		fmt.Fprintf(w, "Net %s, bonus %s, unit share %s over %d shares\n",
			amount(r.Allocation.Net), amount(r.Allocation.Bonus), amount(r.Allocation.UnitShare), r.Allocation.ShareCount)
	}
	if r.OverridesIgnored {
		fmt.Fprintln(w, "Stored overrides no longer fit the total; base allocation used.")
	}
	if r.SettlementEntryID != nil {
		fmt.Fprintf(w, "Settlement entry %s\n", *r.SettlementEntryID)
	}
	if r.DeletedSettlementEntries > 0 {
		fmt.Fprintf(w, "Removed %d settlement entr%s\n", r.DeletedSettlementEntries, plural(r.DeletedSettlementEntries, "y", "ies"))
	}
	if r.PurgedProvisionalEntries > 0 {
		fmt.Fprintf(w, "Purged %d provisional entr%s\n", r.PurgedProvisionalEntries, plural(r.PurgedProvisionalEntries, "y", "ies"))
	}

	keys := make([]string, 0, len(r.Final))
	for k := range r.Final {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %-*s%*s\n", nameWidth, k, amountWidth, amount(r.Final[k]))
	}
	return nil
}

// RenderRecomputeAll summarises a bulk recompute.
func RenderRecomputeAll(w io.Writer, r *dto.RecomputeAllResult) error {
	fmt.Fprintf(w, "Recomputed %d booking%s, %d failed\n", r.Processed, plural(r.Processed, "", "s"), r.Failed)
	for _, id := range r.FailedIDs {
		fmt.Fprintf(w, "  failed: %s\n", id)
	}
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
