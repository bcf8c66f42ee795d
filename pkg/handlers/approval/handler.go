// Package approval provides the require-approval step handler.
//
// Approval is delegated to an Approver, which decides synchronously
// within the step's timeout. The default approver grants every request
// and records that it did, so workflows with approval steps run
// end-to-end in environments without a human channel wired in. A
// deployment that needs real sign-off plugs in an Approver that blocks
// on its own channel; a decision that cannot arrive in time surfaces
// as a step timeout and follows the step's failure path.
package approval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tasklab/automation/pkg/models"
)

// ErrApprovalRejected is returned when the approver declines, failing
// the step so the workflow takes its failure branch.
var ErrApprovalRejected = errors.New("approval rejected")

// Request describes one pending approval.
type Request struct {
	ExecutionID string
	WorkflowID  string
	StepID      string
	ApproverIDs []string
	Message     string
}

// Approver resolves one approval request. Implementations block until
// a decision exists or ctx is done.
type Approver interface {
	Decide(ctx context.Context, request Request) (approved bool, decidedBy string, err error)
}

// AutoApprover grants every request. Default when nothing else is wired.
type AutoApprover struct{}

func (AutoApprover) Decide(_ context.Context, _ Request) (bool, string, error) {
	return true, "auto", nil
}

type Handler struct {
	approverIDs []string
	message     string
	approver    Approver
}

func NewHandler(config map[string]any, approver Approver) (*Handler, error) {
	message, _ := config["message"].(string)

	var approverIDs []string

	if raw, ok := config["approver_ids"].([]any); ok {
		for _, item := range raw {
			if s, ok := item.(string); ok {
				approverIDs = append(approverIDs, s)
			}
		}
	}

	return &Handler{
		approverIDs: approverIDs,
		message:     message,
		approver:    approver,
	}, nil
}

func (h *Handler) Execute(ctx context.Context, input map[string]any, execCtx *models.ExecutionContext, logger *slog.Logger) (map[string]any, error) {
	logger = logger.With("module", "require_approval_handler")

	message := h.message
	if resolved, ok := input["message"].(string); ok {
		message = resolved
	}

	request := Request{
		ExecutionID: execCtx.ExecutionID,
		WorkflowID:  execCtx.WorkflowID,
		StepID:      execCtx.CurrentStepID,
		ApproverIDs: h.approverIDs,
		Message:     message,
	}

	logger.InfoContext(ctx, "Approval requested",
		"approvers", len(h.approverIDs),
	)

	approved, decidedBy, err := h.approver.Decide(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("approval decision failed: %w", err)
	}

	decidedAt := time.Now().UTC().Format(time.RFC3339)

	if !approved {
		logger.InfoContext(ctx, "Approval rejected", "decided_by", decidedBy)

		return map[string]any{
			"approved":   false,
			"decided_by": decidedBy,
			"decided_at": decidedAt,
		}, ErrApprovalRejected
	}

	logger.InfoContext(ctx, "Approval granted", "decided_by", decidedBy)

	return map[string]any{
		"approved":   true,
		"decided_by": decidedBy,
		"decided_at": decidedAt,
	}, nil
}
