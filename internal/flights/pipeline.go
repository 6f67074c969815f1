package flights

import (
	"github.com/specialistvlad/flightgrid/internal/config"
	"github.com/zclconf/go-cty/cty"
)

// Marker messages printed by the barrier tasks.
const (
	StartMessage = "starting cleaning operations for countries, airlines and routes"
	JoinMessage  = "join operations are going to begin"
	EndMessage   = "gold tables are successfully generated"
)

// DefaultPipeline returns the built-in task graph:
//
//	marker.start -> clean.{countries,airlines,routes} -> marker.join
//	  -> join.{countries_and_airlines,airlines_and_routes} -> marker.end
//
// Each call returns a fresh value.
func DefaultPipeline() *config.Pipeline {
	marker := func(name, msg string, deps ...string) *config.Task {
		return &config.Task{
			Kind:      "marker",
			Name:      name,
			Arguments: cty.ObjectVal(map[string]cty.Value{"message": cty.StringVal(msg)}),
			DependsOn: deps,
		}
	}
	clean := func(name, entity string) *config.Task {
		return &config.Task{
			Kind:      "clean",
			Name:      name,
			Arguments: cty.ObjectVal(map[string]cty.Value{"entity": cty.StringVal(entity)}),
			DependsOn: []string{"marker.start"},
		}
	}
	join := func(name, aggregate string) *config.Task {
		return &config.Task{
			Kind:      "join",
			Name:      name,
			Arguments: cty.ObjectVal(map[string]cty.Value{"aggregate": cty.StringVal(aggregate)}),
			DependsOn: []string{"marker.join"},
		}
	}

	return &config.Pipeline{
		Name: "flight-data-pipeline",
		Tasks: []*config.Task{
			marker("start", StartMessage),
			clean("countries", Country),
			clean("airlines", Airline),
			clean("routes", Route),
			marker("join", JoinMessage, "clean.countries", "clean.airlines", "clean.routes"),
			join("countries_and_airlines", AirlinesPerCountry),
			join("airlines_and_routes", RoutesPerAirline),
			marker("end", EndMessage, "join.countries_and_airlines", "join.airlines_and_routes"),
		},
	}
}
