package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cirocosta/todo-service-go/internal/api"
	"github.com/cirocosta/todo-service-go/internal/repository"
	"github.com/cirocosta/todo-service-go/internal/service"
)

var openapiOutput string

var openapiCmd = &cobra.Command{
	Use:   "openapi-gen",
	Short: "Generate OpenAPI documentation",
	Long: `Write the OpenAPI document of the HTTP API. The format is YAML when the
output file ends in .yaml or .yml and JSON otherwise; "-" writes JSON to
stdout.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := renderOpenAPI(openapiDocument(), openapiOutput)
		if err != nil {
			return err
		}

		if openapiOutput == "-" {
			_, err := cmd.OutOrStdout().Write(data)
			return err
		}

		if err := os.WriteFile(openapiOutput, data, 0o644); err != nil {
			return fmt.Errorf("write openapi spec to file '%s': %w", openapiOutput, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "OpenAPI spec generated at %s\n", openapiOutput)
		return nil
	},
}

func init() {
	openapiCmd.Flags().StringVarP(&openapiOutput, "output", "o", "openapi.json", "output file path")
}

// openapiDocument builds the full API, admin routes included, over a storage
// that is never initialized
func openapiDocument() map[string]any {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	storage := repository.NewSelector(repository.SelectorConfig{Serverless: true}, logger)

	return api.NewRouter(service.NewTodoService(storage), api.Options{
		Logger:     logger,
		AllowClear: true,
		Version:    version,
	}).OpenAPI()
}

// renderOpenAPI encodes spec for the given output path
func renderOpenAPI(spec map[string]any, path string) ([]byte, error) {
	data, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal openapi spec: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
	default:
		return append(data, '\n'), nil
	}

	// through JSON first so json tags and omitempty apply
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode openapi spec: %w", err)
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal openapi spec as yaml: %w", err)
	}

	return out, nil
}
