package registry

import (
	"github.com/meridianhq/flowline/pkg/actions/call"
	"github.com/meridianhq/flowline/pkg/actions/crmsync"
	"github.com/meridianhq/flowline/pkg/actions/deal"
	"github.com/meridianhq/flowline/pkg/actions/email"
	"github.com/meridianhq/flowline/pkg/actions/sms"
	"github.com/meridianhq/flowline/pkg/actions/task"
	"github.com/meridianhq/flowline/pkg/config"
)

// RegisterDefaults wires the built-in action set into a registry.
func RegisterDefaults(r *Registry, providers config.Providers) {
	r.RegisterAction(email.NewFactory(providers.Email))
	r.RegisterAction(sms.NewFactory(providers.SMS))
	r.RegisterAction(call.NewFactory(providers.Voice))
	r.RegisterAction(crmsync.NewFactory(providers.CRM))
	r.RegisterAction(task.NewFactory())
	r.RegisterAction(deal.NewFactory())
}
