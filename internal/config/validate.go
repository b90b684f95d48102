package config

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaSource string

// Validation error codes (E200-E209).
const (
	ErrSchemaCompile   = "E200" // embedded schema failed to compile
	ErrSchemaViolation = "E201" // value violates the schema
	ErrSampleRange     = "E202" // motion sample start after end
)

// ValidationError is one problem found in a Params value.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// InvalidParamsError wraps every ValidationError found by Load.
type InvalidParamsError struct {
	Errors []ValidationError
}

// Error implements the error interface.
func (e *InvalidParamsError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		msgs[i] = ve.Error()
	}
	return "invalid params: " + strings.Join(msgs, "; ")
}

// Validate checks p against the embedded CUE schema and the cross-field
// rules the schema does not express. It returns all problems found.
func Validate(p Params) []ValidationError {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return []ValidationError{{Field: "schema", Message: err.Error(), Code: ErrSchemaCompile}}
	}

	def := schema.LookupPath(cue.ParsePath("#Params"))
	unified := def.Unify(ctx.Encode(p))

	var errs []ValidationError
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		for _, ce := range cueerrors.Errors(err) {
			format, args := ce.Msg()
			path := ce.Path()
			if len(path) > 0 && path[0] == "#Params" {
				path = path[1:]
			}
			errs = append(errs, ValidationError{
				Field:   strings.Join(path, "."),
				Message: fmt.Sprintf(format, args...),
				Code:    ErrSchemaViolation,
			})
		}
	}

	if p.MotionSampleStart > p.MotionSampleEnd {
		errs = append(errs, ValidationError{
			Field:   "motionSampleStart",
			Message: fmt.Sprintf("start %g is after end %g", p.MotionSampleStart, p.MotionSampleEnd),
			Code:    ErrSampleRange,
		})
	}
	return errs
}
