// package router provides a router wrapper that captures documentation data
package router

import (
	"encoding/json"
	"net/http"
)

// RouteResponse represents a documented response for a specific HTTP status code
type RouteResponse struct {
	StatusCode  string    // HTTP status code (e.g., "200", "400")
	Description string    // Description of the response
	Schema      any       // Response schema/type (optional)
	Examples    []Example // Example responses (optional)
}

// Example represents an example response for documentation
type Example struct {
	ContentType string // Content type of the example (e.g., "application/json")
	Value       string // Example value as string
}

// RouteInfo stores documentation for a route
type RouteInfo struct {
	Method        string                   // HTTP method (GET, POST, etc.)
	Path          string                   // URL path
	Name          string                   // Friendly name for the endpoint
	Description   string                   // Description of what the endpoint does
	Handler       http.Handler             // The actual handler function
	RequestType   any                      // Example request type (for schema generation)
	ResponseType  any                      // Example success response type (for schema generation)
	SuccessStatus string                   // Status code of the success response, "200" when empty
	Responses     map[string]RouteResponse // Map of HTTP status codes to responses
	Tags          []string                 // Tags for grouping endpoints
}

// Server is an entry of the OpenAPI servers list
type Server struct {
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// Tag is an entry of the OpenAPI tags list
type Tag struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// RouteConfig is a builder for route configuration
type RouteConfig struct {
	router        *DocRouter
	method        string
	path          string
	handler       http.HandlerFunc
	name          string
	description   string
	requestType   any
	responseType  any
	successStatus string
	responses     map[string]RouteResponse
	tags          []string
}

// DocRouter wraps http.ServeMux to add documentation capabilities
type DocRouter struct {
	title       string
	description string
	version     string

	mux         *http.ServeMux
	handler     http.Handler
	middlewares []func(http.Handler) http.Handler

	routes  []RouteInfo
	servers []Server
	tags    []Tag

	customResponses map[string]RouteResponse
	routeResponses  map[string]map[string]string // routeID -> statusCode -> responseName
}

// NewDocRouter creates a new documented router
func NewDocRouter(title, description, version string) *DocRouter {
	mux := http.NewServeMux()

	return &DocRouter{
		title:           title,
		description:     description,
		version:         version,
		mux:             mux,
		handler:         mux,
		routes:          []RouteInfo{},
		customResponses: make(map[string]RouteResponse),
		routeResponses:  make(map[string]map[string]string),
	}
}

// WithServer adds an entry to the servers list of the generated document
func (dr *DocRouter) WithServer(url, description string) *DocRouter {
	dr.servers = append(dr.servers, Server{URL: url, Description: description})
	return dr
}

// WithTag documents a tag used by routes
func (dr *DocRouter) WithTag(name, description string) *DocRouter {
	dr.tags = append(dr.tags, Tag{Name: name, Description: description})
	return dr
}

// RegisterResponse adds a named response to components that routes can reference
func (dr *DocRouter) RegisterResponse(name, description string, schema any) {
	dr.customResponses[name] = RouteResponse{Description: description, Schema: schema}
}

// RegisterRouteResponse associates a named response with a specific route and status code
func (dr *DocRouter) RegisterRouteResponse(path, method, statusCode, responseName string) {
	id := routeID(method, path)

	if _, exists := dr.routeResponses[id]; !exists {
		dr.routeResponses[id] = make(map[string]string)
	}

	dr.routeResponses[id][statusCode] = responseName
}

// Route starts a route configuration chain
func (dr *DocRouter) Route(method, path string, handler http.HandlerFunc) *RouteConfig {
	return &RouteConfig{
		router:    dr,
		method:    method,
		path:      path,
		handler:   handler,
		responses: make(map[string]RouteResponse),
	}
}

// Handle registers an undocumented handler, e.g. static assets or metrics
func (dr *DocRouter) Handle(pattern string, handler http.Handler) {
	dr.mux.Handle(pattern, handler)
}

// WithName adds a name to the route
func (rc *RouteConfig) WithName(name string) *RouteConfig {
	rc.name = name
	return rc
}

// WithDescription adds a description to the route
func (rc *RouteConfig) WithDescription(description string) *RouteConfig {
	rc.description = description
	return rc
}

// WithRequest adds a request type to the route
func (rc *RouteConfig) WithRequest(requestType any) *RouteConfig {
	rc.requestType = requestType
	return rc
}

// WithResponse adds a success response type to the route
func (rc *RouteConfig) WithResponse(responseType any) *RouteConfig {
	rc.responseType = responseType
	return rc
}

// WithStatus sets the status code of the success response
func (rc *RouteConfig) WithStatus(statusCode string) *RouteConfig {
	rc.successStatus = statusCode
	return rc
}

// WithErrorResponse adds an error response to the route
func (rc *RouteConfig) WithErrorResponse(statusCode, description string, schema any, examples ...Example) *RouteConfig {
	rc.responses[statusCode] = RouteResponse{
		StatusCode:  statusCode,
		Description: description,
		Schema:      schema,
		Examples:    examples,
	}
	return rc
}

// WithTags adds tags to the route
func (rc *RouteConfig) WithTags(tags ...string) *RouteConfig {
	rc.tags = tags
	return rc
}

// Register finalizes the route configuration and registers it with the router
func (rc *RouteConfig) Register() {
	// Create the Go 1.22 pattern with method
	pattern := rc.method + " " + rc.path

	rc.router.mux.Handle(pattern, rc.handler)

	rc.router.routes = append(rc.router.routes, RouteInfo{
		Method:        rc.method,
		Path:          rc.path,
		Name:          rc.name,
		Description:   rc.description,
		Handler:       rc.handler,
		RequestType:   rc.requestType,
		ResponseType:  rc.responseType,
		SuccessStatus: rc.successStatus,
		Responses:     rc.responses,
		Tags:          rc.tags,
	})
}

// GetRoutes returns all documented routes
func (dr *DocRouter) GetRoutes() []RouteInfo {
	return dr.routes
}

// ServeHTTP makes DocRouter implement the http.Handler interface
func (dr *DocRouter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	dr.handler.ServeHTTP(w, r)
}

// Use appends middleware. The first middleware added is the outermost and
// every route, whenever registered, runs through the chain.
func (dr *DocRouter) Use(middleware ...func(http.Handler) http.Handler) {
	dr.middlewares = append(dr.middlewares, middleware...)

	var handler http.Handler = dr.mux
	for i := len(dr.middlewares) - 1; i >= 0; i-- {
		handler = dr.middlewares[i](handler)
	}

	dr.handler = handler
}

// OpenAPI generates the OpenAPI document describing every registered route
func (dr *DocRouter) OpenAPI() map[string]any {
	g := NewOpenAPIGenerator(dr.title, dr.description, dr.version, dr.routes)
	g.Servers = dr.servers
	g.Tags = dr.tags

	g.customResponses = dr.customResponses
	g.routeResponses = dr.routeResponses

	return g.Generate()
}

// OpenAPIJSON returns the indented JSON encoding of OpenAPI
func (dr *DocRouter) OpenAPIJSON() ([]byte, error) {
	return json.MarshalIndent(dr.OpenAPI(), "", "  ")
}
