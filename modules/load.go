// Package modules assembles the built-in business modules. Order matters:
// dataio resolves services registered by crm and billing.
package modules

import (
	"github.com/nordwell/desk-sdk/modules/billing"
	"github.com/nordwell/desk-sdk/modules/crm"
	"github.com/nordwell/desk-sdk/modules/dataio"
	"github.com/nordwell/desk-sdk/pkg/application"
)

func BuiltInModules() []application.Module {
	return []application.Module{
		crm.NewModule(),
		billing.NewModule(),
		dataio.NewModule(),
	}
}

func Load(app application.Application, mods ...application.Module) error {
	if len(mods) == 0 {
		mods = BuiltInModules()
	}
	for _, module := range mods {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	return nil
}
