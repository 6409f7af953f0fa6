package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode"
)

// OpenAPIVersion is the version of the generated documents
const OpenAPIVersion = "3.0.3"

// OpenAPIGenerator generates OpenAPI specs from route info
type OpenAPIGenerator struct {
	Title       string
	Description string
	Version     string
	Routes      []RouteInfo
	Servers     []Server
	Tags        []Tag

	schemaRegistry  *schemaRegistry
	customResponses map[string]RouteResponse
	routeResponses  map[string]map[string]string // routeID -> statusCode -> responseName
}

// NewOpenAPIGenerator creates a new OpenAPI generator
func NewOpenAPIGenerator(title, description, version string, routes []RouteInfo) *OpenAPIGenerator {
	return &OpenAPIGenerator{
		Title:           title,
		Description:     description,
		Version:         version,
		Routes:          routes,
		schemaRegistry:  newSchemaRegistry(),
		customResponses: make(map[string]RouteResponse),
		routeResponses:  make(map[string]map[string]string),
	}
}

// RegisterResponse adds a named response that can be referenced by routes
func (g *OpenAPIGenerator) RegisterResponse(name string, response RouteResponse) {
	g.customResponses[name] = response
}

// RegisterRouteResponse associates a named response with a specific route and status code
func (g *OpenAPIGenerator) RegisterRouteResponse(path, method, statusCode, responseName string) {
	id := routeID(method, path)

	if _, exists := g.routeResponses[id]; !exists {
		g.routeResponses[id] = make(map[string]string)
	}

	g.routeResponses[id][statusCode] = responseName
}

// Generate creates and returns an OpenAPI specification
func (g *OpenAPIGenerator) Generate() map[string]any {
	// paths go first: generating them registers the schemas components refer to
	paths := g.generatePaths()

	spec := map[string]any{
		"openapi": OpenAPIVersion,
		"info": map[string]any{
			"title":       g.Title,
			"description": g.Description,
			"version":     g.Version,
		},
		"paths":      paths,
		"components": g.generateComponents(),
	}

	if len(g.Servers) > 0 {
		spec["servers"] = g.Servers
	}
	if len(g.Tags) > 0 {
		spec["tags"] = g.Tags
	}

	return spec
}

func routeID(method, path string) string {
	return fmt.Sprintf("%s:%s", strings.ToLower(method), path)
}

// extractPathParams gets path parameters from a URL path
func extractPathParams(path string) []string {
	var params []string

	for _, part := range strings.Split(path, "/") {
		if len(part) > 2 && part[0] == '{' && part[len(part)-1] == '}' {
			// {name...} wildcards document as name
			params = append(params, strings.TrimSuffix(part[1:len(part)-1], "..."))
		}
	}

	return params
}

// generatePathParameters creates parameter objects for path parameters
func generatePathParameters(params []string) []any {
	var parameters []any

	for _, param := range params {
		parameters = append(parameters, map[string]any{
			"name":     param,
			"in":       "path",
			"required": true,
			"schema": map[string]any{
				"type": "string",
			},
			"description": fmt.Sprintf("%s parameter", param),
		})
	}

	return parameters
}

// operationID derives a camelCase identifier from the route name, falling
// back to method and path
func operationID(route RouteInfo) string {
	source := route.Name
	if source == "" {
		source = route.Method + " " + route.Path
	}

	var b strings.Builder
	upper := false
	for _, r := range source {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = b.Len() > 0
			continue
		}
		switch {
		case b.Len() == 0:
			b.WriteRune(unicode.ToLower(r))
		case upper:
			b.WriteRune(unicode.ToUpper(r))
		default:
			b.WriteRune(unicode.ToLower(r))
		}
		upper = false
	}

	return b.String()
}

// generatePaths creates the paths section of the OpenAPI spec
func (g *OpenAPIGenerator) generatePaths() map[string]any {
	paths := map[string]any{}

	for _, route := range g.Routes {
		if _, exists := paths[route.Path]; !exists {
			paths[route.Path] = map[string]any{}
		}

		pathItem := paths[route.Path].(map[string]any)
		method := strings.ToLower(route.Method)

		operation := map[string]any{
			"summary":     route.Name,
			"description": route.Description,
			"operationId": operationID(route),
			"responses":   g.generateResponses(route),
		}

		if len(route.Tags) > 0 {
			operation["tags"] = route.Tags
		}

		if params := extractPathParams(route.Path); len(params) > 0 {
			operation["parameters"] = generatePathParameters(params)
		}

		if route.RequestType != nil && (method == "post" || method == "put" || method == "patch") {
			operation["requestBody"] = g.generateRequestBody(route)
		}

		pathItem[method] = operation
	}

	return paths
}

// responseObject renders a single response
func (g *OpenAPIGenerator) responseObject(resp RouteResponse) map[string]any {
	response := map[string]any{
		"description": resp.Description,
	}

	content := map[string]any{}

	if resp.Schema != nil {
		content["schema"] = g.schemaRef(resp.Schema)
	}

	switch len(resp.Examples) {
	case 0:
	case 1:
		content["example"] = exampleValue(resp.Examples[0].Value)
	default:
		examples := map[string]any{}
		for i, example := range resp.Examples {
			examples[fmt.Sprintf("example%d", i+1)] = map[string]any{
				"value": exampleValue(example.Value),
			}
		}
		content["examples"] = examples
	}

	if len(content) > 0 {
		response["content"] = map[string]any{
			"application/json": content,
		}
	}

	return response
}

// exampleValue decodes JSON examples so they are embedded as values rather
// than strings
func exampleValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}

// generateResponses creates response documentation
func (g *OpenAPIGenerator) generateResponses(route RouteInfo) map[string]any {
	responses := map[string]any{}

	for statusCode, routeResponse := range route.Responses {
		responses[statusCode] = g.responseObject(routeResponse)
	}

	success := route.SuccessStatus
	if success == "" {
		success = "200"
	}

	if _, exists := responses[success]; !exists {
		responses[success] = g.responseObject(RouteResponse{
			Description: successDescription(success),
			Schema:      route.ResponseType,
		})
	}

	for statusCode, responseName := range g.routeResponses[routeID(route.Method, route.Path)] {
		if _, exists := responses[statusCode]; exists {
			continue
		}

		responses[statusCode] = map[string]any{
			"$ref": "#/components/responses/" + responseName,
		}
	}

	return responses
}

func successDescription(statusCode string) string {
	var code int
	if _, err := fmt.Sscanf(statusCode, "%d", &code); err == nil {
		if text := http.StatusText(code); text != "" {
			return text
		}
	}
	return "successful operation"
}

// generateRequestBody creates request body documentation
func (g *OpenAPIGenerator) generateRequestBody(route RouteInfo) map[string]any {
	return map[string]any{
		"description": fmt.Sprintf("request body for %s", route.Name),
		"required":    true,
		"content": map[string]any{
			"application/json": map[string]any{
				"schema": g.schemaRef(route.RequestType),
			},
		},
	}
}

// generateComponents creates reusable components
func (g *OpenAPIGenerator) generateComponents() map[string]any {
	components := map[string]any{}

	if len(g.customResponses) > 0 {
		responses := map[string]any{}
		for name, resp := range g.customResponses {
			responses[name] = g.responseObject(resp)
		}
		components["responses"] = responses
	}

	// after responses, which may register more schemas
	components["schemas"] = g.schemaRegistry.getSchemas()

	return components
}

// schemaRef returns the schema of t, registering named structs as components
func (g *OpenAPIGenerator) schemaRef(t any) map[string]any {
	return newSchemaGenerator(g.schemaRegistry).generate(t)
}
