package handlers

import (
	_ "embed"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed openapi.yaml
var openAPISpec []byte

const docsHTML = `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width,initial-scale=1" />
    <title>Food Service Auth API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
    <style>
      body { margin: 0; }
    </style>
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: "/docs/openapi.yaml",
        dom_id: "#swagger-ui",
        persistAuthorization: false,
        presets: [SwaggerUIBundle.presets.apis],
        layout: "BaseLayout"
      });
    </script>
  </body>
</html>`

// DocsPage serves a swagger-ui shell pointed at OpenAPISpec.
func DocsPage(ctx *gin.Context) {
	ctx.Header("Cache-Control", "public, max-age=300")
	ctx.Data(http.StatusOK, "text/html; charset=utf-8", []byte(docsHTML))
}

func OpenAPISpec(ctx *gin.Context) {
	ctx.Header("Cache-Control", "public, max-age=300")
	ctx.Data(http.StatusOK, "application/yaml; charset=utf-8", openAPISpec)
}
