package model

import "time"

// Health describes the state of the active storage backend
type Health struct {
	Storage           string `json:"storage" doc:"Active storage backend" enum:"postgres,file,memory"`
	Reachable         bool   `json:"reachable" doc:"Whether the backend answered a probe"`
	FallbackActivated bool   `json:"fallbackActivated" doc:"Whether storage was downgraded to memory after a database failure"`
	LastError         string `json:"lastError,omitempty" doc:"Last recorded storage error"`
}

// Healthy reports whether the backend is reachable and running as configured
func (h Health) Healthy() bool {
	return h.Reachable && !h.FallbackActivated
}

// HealthResponse is the body of the health endpoint
type HealthResponse struct {
	Status    string    `json:"status" doc:"ok or degraded" enum:"ok,degraded"`
	Timestamp time.Time `json:"timestamp" doc:"Time of the probe"`
	Health
}

// Diagnostics summarizes the runtime configuration without secrets
type Diagnostics struct {
	Env                 string `json:"env" doc:"Deployment environment" example:"production"`
	Serverless          bool   `json:"serverless" doc:"Whether the filesystem is treated as read-only"`
	DatabaseConfigured  bool   `json:"databaseConfigured" doc:"Whether a database url is set"`
	DatabaseDriver      string `json:"databaseDriver" doc:"database/sql driver used for postgres" example:"pgx"`
	DatabaseSSLDisabled bool   `json:"databaseSslDisabled" doc:"Whether TLS to the database is disabled"`
	AllowMemoryFallback bool   `json:"allowMemoryFallback" doc:"Whether an unreachable database downgrades to memory"`
	DataFile            string `json:"dataFile" doc:"JSON document used by the file backend" example:"data/todos.json"`
	AllowClear          bool   `json:"allowClear" doc:"Whether DELETE /todos is exposed"`
	TracingEnabled      bool   `json:"tracingEnabled" doc:"Whether spans are exported"`
}

// DiagResponse is the body of the diagnostics endpoint
type DiagResponse struct {
	Diagnostics
	Storage   Health    `json:"storage" doc:"State of the active storage backend"`
	GoVersion string    `json:"goVersion" doc:"Runtime version" example:"go1.24.0"`
	Timestamp time.Time `json:"timestamp" doc:"Time of the probe"`
}
