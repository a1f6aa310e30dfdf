package documents

import "github.com/JaimeStill/stamper/pkg/openapi"

// Schemas returns the component schemas used by the document endpoints.
func Schemas() map[string]*openapi.Schema {
	return map[string]*openapi.Schema{
		"FileLinks": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"fileName":        {Type: "string", Example: "stamped_report.pdf"},
				"fileDownloadUri": {Type: "string", Format: "uri"},
				"thumbnailUri":    {Type: "string", Format: "uri"},
			},
			Required: []string{"fileName", "fileDownloadUri", "thumbnailUri"},
		},
		"ListEntry": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"name":         {Type: "string", Example: "report.pdf"},
				"origin":       {Type: "string", Enum: []any{string(OriginUploaded), string(OriginStamped)}},
				"sourceName":   {Type: "string", Description: "Document a stamped document was derived from"},
				"url":          {Type: "string", Format: "uri"},
				"thumbnailUrl": {Type: "string", Format: "uri"},
				"stamped":      {Type: "boolean"},
			},
			Required: []string{"name", "origin", "url", "thumbnailUrl", "stamped"},
		},
		"DeleteResult": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"deleted": {Type: "boolean", Description: "Whether the document existed"},
			},
			Required: []string{"deleted"},
		},
		"Upload": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"file": {Type: "string", Format: "binary", Description: "PDF document (application/pdf)"},
			},
			Required: []string{"file"},
		},
	}
}

// Paths returns the OpenAPI path items for the document endpoints, keyed
// by full path beneath basePath.
func Paths(basePath string) map[string]*openapi.PathItem {
	prefix := basePath + routePrefix
	nameParam := openapi.PathParam("name", "Document file name, ending in .pdf")
	tags := []string{"Files"}

	return map[string]*openapi.PathItem{
		prefix + "/list": {
			Get: &openapi.Operation{
				Summary: "List stored documents",
				Tags:    tags,
				Responses: map[int]*openapi.Response{
					200: openapi.ResponseJSONArray("Stored documents", "ListEntry"),
					500: openapi.ResponseRef("ServerError"),
				},
			},
		},
		prefix + "/upload": {
			Post: &openapi.Operation{
				Summary: "Upload a PDF document",
				Tags:    tags,
				RequestBody: &openapi.RequestBody{
					Required: true,
					Content: map[string]*openapi.MediaType{
						"multipart/form-data": {Schema: openapi.SchemaRef("Upload")},
					},
				},
				Responses: map[int]*openapi.Response{
					200: openapi.ResponseJSON("Stored document links", "FileLinks"),
					400: openapi.ResponseRef("BadRequest"),
					413: openapi.ResponseRef("PayloadTooLarge"),
					500: openapi.ResponseRef("ServerError"),
				},
			},
		},
		prefix + "/download/{name}": {
			Get: &openapi.Operation{
				Summary:    "Download a document",
				Tags:       tags,
				Parameters: []*openapi.Parameter{nameParam},
				Responses: map[int]*openapi.Response{
					200: openapi.ResponseBinary("Document content", "application/pdf"),
					400: openapi.ResponseRef("BadRequest"),
					404: openapi.ResponseRef("NotFound"),
				},
			},
		},
		prefix + "/thumbnail/{name}": {
			Get: &openapi.Operation{
				Summary:     "Fetch the first-page preview",
				Description: "Renders and caches the preview on first request.",
				Tags:        tags,
				Parameters:  []*openapi.Parameter{nameParam},
				Responses: map[int]*openapi.Response{
					200: openapi.ResponseBinary("JPEG preview", "image/jpeg"),
					400: openapi.ResponseRef("BadRequest"),
					404: openapi.ResponseRef("NotFound"),
					500: openapi.ResponseRef("ServerError"),
				},
			},
		},
		prefix + "/stamp/{name}": {
			Post: &openapi.Operation{
				Summary:     "Stamp every page of a document",
				Description: "Writes the stamped copy as stamped_{name}, replacing any earlier stamped copy.",
				Tags:        tags,
				Parameters: []*openapi.Parameter{
					nameParam,
					openapi.QueryParam("date", "string", "Date line text", true),
					openapi.QueryParam("name", "string", "Name line text", true),
					openapi.QueryParam("comment", "string", "Comment line text", true),
				},
				Responses: map[int]*openapi.Response{
					200: openapi.ResponseJSON("Stamped document links", "FileLinks"),
					400: openapi.ResponseRef("BadRequest"),
					404: openapi.ResponseRef("NotFound"),
					500: openapi.ResponseRef("ServerError"),
				},
			},
		},
		prefix + "/{name}": {
			Delete: &openapi.Operation{
				Summary:    "Delete a document and its preview",
				Tags:       tags,
				Parameters: []*openapi.Parameter{nameParam},
				Responses: map[int]*openapi.Response{
					200: openapi.ResponseJSON("Delete outcome", "DeleteResult"),
					400: openapi.ResponseRef("BadRequest"),
				},
			},
		},
	}
}
