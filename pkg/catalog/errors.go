package catalog

import (
	"errors"
	"fmt"

	"github.com/gnames/gn"
	"github.com/gnames/gnabcd/pkg/errcode"
)

func schemaError(msg string, vars []any, err error) error {
	return &gn.Error{
		Code: errcode.SchemaError,
		Msg:  "Field catalog is broken: " + msg,
		Vars: vars,
		Err:  fmt.Errorf("schema error: %w", err),
	}
}

// DecodeError is returned when the catalog document cannot be read
// as YAML or JSON.
func DecodeError(err error) error {
	return schemaError("cannot decode document", nil, err)
}

// EmptyCatalogError is returned when a catalog has no fields.
func EmptyCatalogError() error {
	return schemaError(
		"no fields are defined",
		nil,
		errors.New("empty catalog"),
	)
}

// EmptyPathError is returned for a field without path.
func EmptyPathError(idx int, path string) error {
	return schemaError(
		"field <em>#%d</em> has empty path",
		[]any{idx + 1},
		fmt.Errorf("field %d has empty path '%s'", idx+1, path),
	)
}

// DuplicatePathError is returned when two fields share a path.
func DuplicatePathError(path string) error {
	return schemaError(
		"duplicate path <em>%s</em>",
		[]any{path},
		fmt.Errorf("duplicate path %s", path),
	)
}

// UnknownTokenError is returned for unsupported type, cardinality,
// requirement or role values.
func UnknownTokenError(kind, token, path string) error {
	return schemaError(
		"unknown %s <em>'%s'</em> in <em>%s</em>",
		[]any{kind, token, path},
		fmt.Errorf("unknown %s '%s' in %s", kind, token, path),
	)
}

// EnumerationValuesError is returned for enumerations without values.
func EnumerationValuesError(path string) error {
	return schemaError(
		"enumeration <em>%s</em> does not list its values",
		[]any{path},
		fmt.Errorf("enumeration %s without values", path),
	)
}

// DuplicateRoleError is returned when two fields claim the same role.
func DuplicateRoleError(role Role, path1, path2 string) error {
	return schemaError(
		"role <em>%s</em> is used by <em>%s</em> and <em>%s</em>",
		[]any{role, path1, path2},
		fmt.Errorf("role %s is used twice", role),
	)
}

// RoleScopeError is returned when a role is given to a field of a
// wrong scope.
func RoleScopeError(role Role, path string, scope Scope) error {
	return schemaError(
		"role <em>%s</em> requires a %s field, got <em>%s</em>",
		[]any{role, scope, path},
		fmt.Errorf("role %s in wrong scope: %s", role, path),
	)
}

// RoleTypeError is returned when a role is given to a field of a wrong
// semantic type.
func RoleTypeError(role Role, path string, typ SemanticType) error {
	return schemaError(
		"role <em>%s</em> requires %s type, field <em>%s</em>",
		[]any{role, typ, path},
		fmt.Errorf("role %s needs type %s: %s", role, typ, path),
	)
}

// CoordinatePairError is returned when only one of longitude and
// latitude roles is declared.
func CoordinatePairError(missing Role) error {
	return schemaError(
		"coordinates need both roles, <em>%s</em> is missing",
		[]any{missing},
		fmt.Errorf("missing %s role", missing),
	)
}
