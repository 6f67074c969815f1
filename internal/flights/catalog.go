// Package flights is the catalog of the flight data pipeline: the raw and
// cleaned schemas of countries, airlines and routes, the two aggregates
// derived from them, and the default task graph tying them together.
package flights

import (
	"fmt"
	"sort"

	"github.com/specialistvlad/flightgrid/internal/table"
	"github.com/specialistvlad/flightgrid/internal/transform"
)

// Sentinel is the literal null marker used by the raw datasets.
const Sentinel = `\N`

// Entity names.
const (
	Country = "country"
	Airline = "airline"
	Route   = "route"
)

// Aggregate names.
const (
	AirlinesPerCountry = "airlines_per_country"
	RoutesPerAirline   = "routes_per_airline"
)

// Entity describes one raw dataset and how it is cleaned.
type Entity struct {
	Name   string
	Bronze string
	Silver string
	Clean  transform.CleanSpec
}

// Aggregate describes one gold table and the join producing it. Left and
// Right name entities whose silver tables are read.
type Aggregate struct {
	Name  string
	Left  string
	Right string
	Gold  string
	Join  transform.JoinSpec
}

var (
	countrySchema = table.Schema{
		{Name: "name", Type: table.String},
		{Name: "iso_code", Type: table.String},
		{Name: "dafif_code", Type: table.String},
	}
	airlineSchema = table.Schema{
		{Name: "id", Type: table.Int64},
		{Name: "name", Type: table.String},
		{Name: "iata_code", Type: table.String},
		{Name: "icao_code", Type: table.String},
		{Name: "call_sign", Type: table.String},
		{Name: "country", Type: table.String},
		{Name: "active", Type: table.String},
	}
	routeSchema = table.Schema{
		{Name: "airline", Type: table.String},
		{Name: "airline_id", Type: table.Int64},
		{Name: "source_airport", Type: table.String},
		{Name: "source_airport_id", Type: table.Int64},
		{Name: "destination_airport", Type: table.String},
		{Name: "destination_airport_id", Type: table.Int64},
	}
)

var entities = map[string]Entity{
	Country: {
		Name:   Country,
		Bronze: "countries_bronze",
		Silver: "countries_silver",
		Clean: transform.CleanSpec{
			Entity:          Country,
			SentinelChecked: []string{"iso_code"},
			NullChecked:     []string{"dafif_code"},
			Sentinel:        Sentinel,
			Schema:          countrySchema,
		},
	},
	Airline: {
		Name:   Airline,
		Bronze: "airlines_bronze",
		Silver: "airlines_silver",
		Clean: transform.CleanSpec{
			Entity:          Airline,
			Drop:            []string{"alias"},
			SentinelChecked: []string{"icao_code"},
			NullChecked:     []string{"call_sign", "iata_code"},
			Sentinel:        Sentinel,
			Schema:          airlineSchema,
		},
	},
	Route: {
		Name:   Route,
		Bronze: "routes_bronze",
		Silver: "routes_silver",
		Clean: transform.CleanSpec{
			Entity:          Route,
			Drop:            []string{"no_of_stops"},
			SentinelChecked: []string{"destination_airport_id", "source_airport_id", "airline_id"},
			Sentinel:        Sentinel,
			Schema:          routeSchema,
		},
	},
}

var aggregates = map[string]Aggregate{
	AirlinesPerCountry: {
		Name:  AirlinesPerCountry,
		Left:  Airline,
		Right: Country,
		Gold:  "airlines_per_country_gold",
		Join: transform.JoinSpec{
			Name:        AirlinesPerCountry,
			Left:        transform.Side{Alias: "airlines", Key: "country", Schema: airlineSchema},
			Right:       transform.Side{Alias: "countries", Key: "name", Schema: countrySchema},
			GroupBy:     transform.ColumnRef{Table: "countries", Column: "name"},
			GroupColumn: "country",
			CountColumn: "num_of_airlines",
		},
	},
	RoutesPerAirline: {
		Name:  RoutesPerAirline,
		Left:  Airline,
		Right: Route,
		Gold:  "routes_per_airline_gold",
		Join: transform.JoinSpec{
			Name:        RoutesPerAirline,
			Left:        transform.Side{Alias: "airlines", Key: "id", Schema: airlineSchema},
			Right:       transform.Side{Alias: "routes", Key: "airline_id", Schema: routeSchema},
			GroupBy:     transform.ColumnRef{Table: "airlines", Column: "name"},
			GroupColumn: "airline",
			CountColumn: "num_of_routes",
		},
	},
}

// LookupEntity returns the catalog entry for name.
func LookupEntity(name string) (Entity, error) {
	e, ok := entities[name]
	if !ok {
		return Entity{}, fmt.Errorf("unknown entity %q (known: %v)", name, EntityNames())
	}
	return e, nil
}

// LookupAggregate returns the catalog entry for name.
func LookupAggregate(name string) (Aggregate, error) {
	a, ok := aggregates[name]
	if !ok {
		return Aggregate{}, fmt.Errorf("unknown aggregate %q (known: %v)", name, AggregateNames())
	}
	return a, nil
}

// EntityNames lists the cataloged entities in sorted order.
func EntityNames() []string { return sortedKeys(entities) }

// AggregateNames lists the cataloged aggregates in sorted order.
func AggregateNames() []string { return sortedKeys(aggregates) }

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
