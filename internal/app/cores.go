package app

import (
	"github.com/coastalsim/windsurf/cores/cdm"
	"github.com/coastalsim/windsurf/cores/constant"
	"github.com/coastalsim/windsurf/internal/registry"
)

// coreCores lists the model cores compiled into the default binary.
var coreCores = []registry.Core{
	&cdm.Module{},
	&constant.Module{},
}
