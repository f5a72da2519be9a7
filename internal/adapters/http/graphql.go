package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/drillmap/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to the dataset and point services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	xyzFields := func() graphql.Fields {
		return graphql.Fields{
			"x": &graphql.Field{Type: graphql.Float},
			"y": &graphql.Field{Type: graphql.Float},
			"z": &graphql.Field{Type: graphql.Float},
		}
	}
	rawPointType := graphql.NewObject(graphql.ObjectConfig{Name: "RawPoint", Fields: xyzFields()})
	localPointType := graphql.NewObject(graphql.ObjectConfig{Name: "LocalPoint", Fields: xyzFields()})

	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	projectedPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ProjectedPoint",
		Fields: graphql.Fields{
			"easting":  &graphql.Field{Type: graphql.Float},
			"northing": &graphql.Field{Type: graphql.Float},
		},
	})

	axisType := graphql.NewObject(graphql.ObjectConfig{
		Name: "AxisExtent",
		Fields: graphql.Fields{
			"min":    &graphql.Field{Type: graphql.Float},
			"max":    &graphql.Field{Type: graphql.Float},
			"span":   &graphql.Field{Type: graphql.Float},
			"center": &graphql.Field{Type: graphql.Float},
		},
	})

	statsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ExtentStats",
		Fields: graphql.Fields{
			"x": &graphql.Field{Type: axisType},
			"y": &graphql.Field{Type: axisType},
			"z": &graphql.Field{Type: axisType},
		},
	})

	boundsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Bounds",
		Fields: graphql.Fields{
			"min_lat": &graphql.Field{Type: graphql.Float},
			"min_lon": &graphql.Field{Type: graphql.Float},
			"max_lat": &graphql.Field{Type: graphql.Float},
			"max_lon": &graphql.Field{Type: graphql.Float},
		},
	})

	datasetType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Dataset",
		Fields: graphql.Fields{
			"id":                 &graphql.Field{Type: graphql.String},
			"file_name":          &graphql.Field{Type: graphql.String},
			"source_format":      &graphql.Field{Type: graphql.String},
			"record_count":       &graphql.Field{Type: graphql.Int},
			"excluded_count":     &graphql.Field{Type: graphql.Int},
			"stats":              &graphql.Field{Type: statsType},
			"geo_bounds":         &graphql.Field{Type: boundsType},
			"params_fingerprint": &graphql.Field{Type: graphql.String},
			"created_at":         &graphql.Field{Type: graphql.DateTime},
			"updated_at":         &graphql.Field{Type: graphql.DateTime},
		},
	})

	recordType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Record",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.String},
			"name":          &graphql.Field{Type: graphql.String},
			"line":          &graphql.Field{Type: graphql.Int},
			"start_raw":     &graphql.Field{Type: rawPointType},
			"end_raw":       &graphql.Field{Type: rawPointType},
			"start_local":   &graphql.Field{Type: localPointType},
			"end_local":     &graphql.Field{Type: localPointType},
			"start_display": &graphql.Field{Type: localPointType},
			"end_display":   &graphql.Field{Type: localPointType},
			"start_geo":     &graphql.Field{Type: geoPointType},
			"end_geo":       &graphql.Field{Type: geoPointType},
			"trace_length":  &graphql.Field{Type: graphql.Float},
		},
	})

	conversionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "PointConversion",
		Fields: graphql.Fields{
			"raw":       &graphql.Field{Type: rawPointType},
			"local":     &graphql.Field{Type: localPointType},
			"projected": &graphql.Field{Type: projectedPointType},
			"geo":       &graphql.Field{Type: geoPointType},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"datasets": &graphql.Field{
				Type:        graphql.NewList(datasetType),
				Description: "Stored datasets, newest first",
				Args: graphql.FieldConfigArgument{
					"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 100},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					datasets, _, err := deps.Datasets.List(p.Context, p.Args["offset"].(int), p.Args["limit"].(int))
					return datasets, err
				},
			},
			"dataset": &graphql.Field{
				Type:        datasetType,
				Description: "Get a dataset by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Datasets.Get(p.Context, p.Args["id"].(string))
				},
			},
			"records": &graphql.Field{
				Type:        graphql.NewList(recordType),
				Description: "Transformed records of a dataset in input order",
				Args: graphql.FieldConfigArgument{
					"dataset_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"offset":     &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
					"limit":      &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 100},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					records, _, err := deps.Datasets.Records(p.Context,
						p.Args["dataset_id"].(string), p.Args["offset"].(int), p.Args["limit"].(int))
					return records, err
				},
			},
			"convertPoint": &graphql.Field{
				Type:        conversionType,
				Description: "Convert a raw or local point to every frame",
				Args: graphql.FieldConfigArgument{
					"x":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"y":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"frame": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: "raw"},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					x, y := p.Args["x"].(float64), p.Args["y"].(float64)
					switch frame := p.Args["frame"].(string); frame {
					case "raw":
						return deps.Points.FromRaw(domain.RawPoint{X: x, Y: y})
					case "local":
						return deps.Points.FromLocal(domain.LocalPoint{X: x, Y: y})
					default:
						return nil, fmt.Errorf("unknown frame %q", frame)
					}
				},
			},
			"convertGeographic": &graphql.Field{
				Type:        conversionType,
				Description: "Convert a WGS 84 position to grid, local and raw coordinates",
				Args: graphql.FieldConfigArgument{
					"lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Points.FromGeographic(domain.GeoPoint{Lat: p.Args["lat"].(float64), Lon: p.Args["lon"].(float64)})
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Query == "" {
			return errBadRequest(c, "query is required")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})
		return c.JSON(result)
	}
}
