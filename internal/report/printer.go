package report

import (
	"fmt"
	"io"
	"receipt-resender/internal/dtos"
	"receipt-resender/internal/entities"
	"sort"
	"strings"
)

const rule = "============================================================"

type Printer struct {
	w io.Writer
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func PlanEntries(plan []*entities.ResubmissionPayload) []dtos.PlanEntry {
	entries := make([]dtos.PlanEntry, 0, len(plan))
	for _, p := range plan {
		e := dtos.PlanEntry{
			Type:      p.Type,
			Reference: referenceLabel(p),
			ReceiptID: p.ReceiptID,
			Items:     len(p.Items),
			Amount:    p.Amount().String(),
		}
		if !p.Customer.IsEmpty() {
			e.Customer = map[string]string{}
			if p.Customer.Email != "" {
				e.Customer["email"] = p.Customer.Email
			}
			if p.Customer.Phone != "" {
				e.Customer["phone"] = p.Customer.Phone
			}
		}
		entries = append(entries, e)
	}
	return entries
}

func referenceLabel(p *entities.ResubmissionPayload) string {
	if p.Type == entities.ReceiptTypeRefund && p.RefundID != "" {
		return "refund_id=" + p.RefundID
	}
	return "payment_id=" + p.PaymentID
}

func customerLabel(c map[string]string) string {
	if len(c) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+c[k])
	}
	return strings.Join(parts, ", ")
}

func (pr *Printer) PrintPlan(plan []*entities.ResubmissionPayload) {
	fmt.Fprintln(pr.w)
	fmt.Fprintln(pr.w, rule)
	fmt.Fprintf(pr.w, "PLAN: create and send %d receipt(s)\n", len(plan))
	fmt.Fprintln(pr.w, rule)
	for _, e := range PlanEntries(plan) {
		fmt.Fprintf(pr.w, "- type=%s, %s, items=%d, amount=%s, customer: %s\n",
			e.Type, e.Reference, e.Items, e.Amount, customerLabel(e.Customer))
	}
}

func (pr *Printer) PrintReport(r *entities.Report) {
	switch {
	case r.State == entities.StateAborted:
		fmt.Fprintf(pr.w, "Operation canceled by operator, %d planned receipt(s) not sent.\n", len(r.Plan))
		return
	case r.NothingToDo():
		fmt.Fprintf(pr.w, "Found %d canceled receipt(s), nothing to resend after filtering.\n", r.Listed)
		return
	case r.State == entities.StatePlanned:
		fmt.Fprintf(pr.w, "Dry run: %d of %d canceled receipt(s) would be resent.\n", len(r.Plan), r.Listed)
		return
	}

	for _, o := range r.Outcomes {
		if o.OK() {
			fmt.Fprintf(pr.w, "[+] OK: %s -> receipt %s (status=%s)\n", o.Payload.Reference(), o.ReceiptID, o.Status)
		} else {
			fmt.Fprintf(pr.w, "[!] FAIL: %s -> %v\n", o.Payload.Reference(), o.Err)
		}
	}

	fmt.Fprintln(pr.w)
	fmt.Fprintln(pr.w, "--- Report ---")
	fmt.Fprintf(pr.w, "Listed : %d\n", r.Listed)
	fmt.Fprintf(pr.w, "Planned: %d\n", len(r.Plan))
	fmt.Fprintf(pr.w, "Skipped: %d\n", r.Skipped)
	fmt.Fprintf(pr.w, "Success: %d\n", r.Succeeded())
	fmt.Fprintf(pr.w, "Failed : %d\n", r.Failed())
	fmt.Fprintln(pr.w, "--------------")
}
