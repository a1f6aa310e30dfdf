package api

import (
	"net/http"

	"github.com/JaimeStill/stamper/internal/config"
	"github.com/JaimeStill/stamper/internal/documents"
	"github.com/JaimeStill/stamper/pkg/openapi"
	"github.com/JaimeStill/stamper/pkg/routes"
)

// OpenAPIPath serves the generated API description within the module.
const OpenAPIPath = "/openapi.json"

func registerRoutes(mux *http.ServeMux, domain *Domain, cfg *config.Config, runtime *Runtime) error {
	group := domain.Documents.Handler(runtime.BasePath, runtime.MaxUploadSize).Routes()
	routes.Register(mux, group)

	spec, err := openapi.Handler(BuildSpec(cfg))
	if err != nil {
		return err
	}
	mux.Handle("GET "+OpenAPIPath, spec)

	runtime.Logger.Debug("routes registered", "patterns", routes.Patterns(group))
	return nil
}

// BuildSpec assembles the OpenAPI document for the document endpoints.
func BuildSpec(cfg *config.Config) *openapi.Spec {
	spec := openapi.NewSpec(cfg.API.OpenAPI.Title, cfg.Version)
	cfg.API.OpenAPI.Apply(spec)
	spec.Components.AddSchemas(documents.Schemas())

	spec.AddPaths(documents.Paths(cfg.API.BasePath))
	return spec
}
