package document

import (
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"ffglitch/internal/services"
)

//go:embed schema.cue
var schemaSource string

var (
	schemaOnce sync.Once
	schemaCtx  *cue.Context
	schemaDef  cue.Value
	schemaErr  error
	// cue.Context is not safe for concurrent use.
	schemaMu sync.Mutex
)

func loadSchema() (*cue.Context, cue.Value, error) {
	schemaOnce.Do(func() {
		schemaCtx = cuecontext.New()
		compiled := schemaCtx.CompileString(schemaSource, cue.Filename("schema.cue"))
		if err := compiled.Err(); err != nil {
			schemaErr = fmt.Errorf("compile document schema: %w", err)
			return
		}
		schemaDef = compiled.LookupPath(cue.ParsePath("#Document"))
		if !schemaDef.Exists() {
			schemaErr = fmt.Errorf("document schema: #Document not defined")
		}
	})
	return schemaCtx, schemaDef, schemaErr
}

// Validate checks raw sidecar JSON against the embedded CUE schema. It is
// stricter than Decode: payload shapes for known features must be well-formed
// too. Failures match services.ErrMalformedDocument.
func Validate(name string, data []byte) error {
	ctx, def, err := loadSchema()
	if err != nil {
		return err
	}
	schemaMu.Lock()
	defer schemaMu.Unlock()
	value := ctx.CompileBytes(data, cue.Filename(name))
	if err := value.Err(); err != nil {
		return malformed("schema parse", err)
	}
	if err := def.Unify(value).Validate(cue.Concrete(true)); err != nil {
		return services.Wrap(services.ErrMalformedDocument, "document", "schema", "sidecar does not match the ffedit schema", err)
	}
	return nil
}
