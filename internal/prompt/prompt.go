// Package prompt asks the operator on a terminal before receipts are resent.
package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"receipt-resender/internal/entities"
	internalErrors "receipt-resender/internal/errors"
	"receipt-resender/internal/report"
	"strings"
)

type Terminal struct {
	in      io.Reader
	out     io.Writer
	printer *report.Printer
}

func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: in, out: out, printer: report.NewPrinter(out)}
}

// Confirm prints the plan and accepts only "y" as approval.
func (t *Terminal) Confirm(ctx context.Context, plan []*entities.ResubmissionPayload) (bool, error) {
	t.printer.PrintPlan(plan)
	fmt.Fprint(t.out, "\nProceed with sending? (y/n): ")

	answer := make(chan string, 1)
	go func() {
		line, err := bufio.NewReader(t.in).ReadString('\n')
		if err != nil && line == "" {
			close(answer)
			return
		}
		answer <- line
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case line, ok := <-answer:
		if !ok {
			return false, internalErrors.ErrConfirmationClosed
		}
		return strings.ToLower(strings.TrimSpace(line)) == "y", nil
	}
}

// Auto approves every plan; used with --yes.
type Auto struct {
	printer *report.Printer
}

func NewAuto(out io.Writer) *Auto {
	return &Auto{printer: report.NewPrinter(out)}
}

func (a *Auto) Confirm(_ context.Context, plan []*entities.ResubmissionPayload) (bool, error) {
	a.printer.PrintPlan(plan)
	return true, nil
}
