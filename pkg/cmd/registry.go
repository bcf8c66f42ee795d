package cmd

import (
	"log/slog"

	"github.com/tasklab/automation/pkg/handlers/approval"
	"github.com/tasklab/automation/pkg/handlers/createrecord"
	"github.com/tasklab/automation/pkg/handlers/custom"
	"github.com/tasklab/automation/pkg/handlers/evalcondition"
	"github.com/tasklab/automation/pkg/handlers/httprequest"
	"github.com/tasklab/automation/pkg/handlers/integration"
	"github.com/tasklab/automation/pkg/handlers/runscript"
	"github.com/tasklab/automation/pkg/handlers/sendnotification"
	"github.com/tasklab/automation/pkg/handlers/wait"
	"github.com/tasklab/automation/pkg/registry"
)

// NewRegistry builds the handler registry with every built-in step
// type registered under its default collaborators.
func NewRegistry(logger *slog.Logger) *registry.Registry {
	reg := registry.NewRegistry(logger)

	reg.Register(createrecord.NewFactory(nil))
	reg.Register(sendnotification.NewFactory(nil))
	reg.Register(httprequest.NewFactory(nil))
	reg.Register(evalcondition.NewFactory())
	reg.Register(wait.NewFactory())
	reg.Register(runscript.NewFactory())
	reg.Register(approval.NewFactory(nil))
	reg.Register(integration.NewFactory(nil))
	reg.Register(custom.NewFactory(nil))

	return reg
}
