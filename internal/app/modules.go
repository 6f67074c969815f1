package app

import (
	"github.com/specialistvlad/flightgrid/internal/handlers"
	"github.com/specialistvlad/flightgrid/modules/clean"
	"github.com/specialistvlad/flightgrid/modules/join"
	"github.com/specialistvlad/flightgrid/modules/marker"
)

// coreModules is the definitive list of all modules that are compiled into
// the flightgrid binary.
var coreModules = []handlers.Module{
	&marker.Module{},
	&clean.Module{},
	&join.Module{},
}
