package jobs

import (
	"context"
	"fmt"

	"library-backend/internal/logger"
)

// MarkOverdueLoans persists the overdue status of every active loan past its
// due date. Loan reads apply the same transition lazily.
func (jr *JobRunner) MarkOverdueLoans() {
	jr.runWithRecovery("MarkOverdueLoans", func() {
		ctx := logger.WithAttrs(context.Background(), "job", "MarkOverdueLoans")

		count, err := jr.services.Loan.MarkOverdue(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to mark overdue loans", "error", err)
			return
		}
		logger.InfoContext(ctx, "Marked loans as overdue", "count", count)
	})
}

// SendOverdueReminders e-mails the borrower of every overdue loan
func (jr *JobRunner) SendOverdueReminders() {
	jr.runWithRecovery("SendOverdueReminders", func() {
		ctx := logger.WithAttrs(context.Background(), "job", "SendOverdueReminders")

		loans, err := jr.services.Loan.ListOverdue(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to list overdue loans", "error", err)
			return
		}

		sent, skipped := 0, 0
		for _, loan := range loans {
			user, err := jr.services.User.GetUser(ctx, loan.UserID)
			if err != nil {
				logger.ErrorContext(ctx, "Failed to load borrower", "loan_id", loan.ID, "user_id", loan.UserID, "error", err)
				continue
			}
			if !user.IsActive || user.Email == "" {
				skipped++
				continue
			}

			title := fmt.Sprintf("book #%d", loan.BookID)
			if loan.Book != nil {
				title = loan.Book.Title
			}

			if err := jr.services.Email.SendOverdueReminder(ctx, user.Email, user.FullName(), title, loan.DueOn); err != nil {
				logger.ErrorContext(ctx, "Failed to send overdue reminder email",
					"loan_id", loan.ID,
					"user_id", user.ID,
					"email", user.Email,
					"error", err)
				continue
			}

			sent++
			logger.DebugContext(ctx, "Sent overdue reminder", "loan_id", loan.ID, "user_id", user.ID)
		}

		logger.InfoContext(ctx, "Sent overdue reminders", "overdue", len(loans), "sent", sent, "skipped", skipped)
	})
}
