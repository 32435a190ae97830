package swagger

import (
	_ "embed"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// OpenAPI contains the embedded OpenAPI YAML document.
//
//go:embed openapi.yaml
var OpenAPI []byte

// specETag identifies the embedded document; it changes only on rebuild.
var specETag = `"` + strconv.FormatUint(xxhash.Sum64(OpenAPI), 36) + `"`
