package routes

import (
	"net/http"
	"sync"

	"github.com/OFFIS-RIT/lineage/pkg/common"

	"github.com/invopop/jsonschema"
	"github.com/labstack/echo/v4"
)

var graphSchema = sync.OnceValue(func() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	return reflector.Reflect(&common.GraphResult{})
})

func GetGraphSchemaHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, graphSchema())
}
