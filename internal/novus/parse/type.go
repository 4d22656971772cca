package parse

import (
	"strings"

	"github.com/novus-lang/novus/internal/novus/lex"
)

// ParsedType is {id: Token, params: optional TypeParamList}, per spec §3.
type ParsedType struct {
	ID     lex.Token
	Params *TypeParamList // nil when the type has no type arguments
}

// Validate reports whether the type's identifier token is present and,
// when a parameter list exists, that it also validates.
func (t ParsedType) Validate() bool {
	name, ok := t.ID.Identifier()
	if !ok || name == "" {
		return false
	}
	if t.Params != nil {
		return t.Params.Validate()
	}
	return true
}

func (t ParsedType) Equal(other ParsedType) bool {
	name, _ := t.ID.Identifier()
	otherName, _ := other.ID.Identifier()
	if name != otherName {
		return false
	}
	if (t.Params == nil) != (other.Params == nil) {
		return false
	}
	if t.Params != nil {
		return t.Params.Equal(*other.Params)
	}
	return true
}

func (t ParsedType) String() string {
	name, _ := t.ID.Identifier()
	if t.Params == nil {
		return name
	}
	return name + t.Params.String()
}

// TypeParamList is an ordered sequence of Types between braces, used at a
// use-site (e.g. List{int}).
type TypeParamList struct {
	Types []ParsedType
}

func (l TypeParamList) Validate() bool {
	if len(l.Types) == 0 {
		return false
	}
	for _, t := range l.Types {
		if !t.Validate() {
			return false
		}
	}
	return true
}

func (l TypeParamList) Equal(other TypeParamList) bool {
	if len(l.Types) != len(other.Types) {
		return false
	}
	for i := range l.Types {
		if !l.Types[i].Equal(other.Types[i]) {
			return false
		}
	}
	return true
}

func (l TypeParamList) String() string {
	parts := make([]string, len(l.Types))
	for i, t := range l.Types {
		parts[i] = t.String()
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// TypeSubstitutionList is the declaration-site analogue of TypeParamList:
// an ordered sequence of type-variable names, e.g. the `{T,U}` in
// `fun map{T,U}(...)`.
type TypeSubstitutionList struct {
	Names []string
}

func (l TypeSubstitutionList) Validate() bool {
	if len(l.Names) == 0 {
		return false
	}
	for _, n := range l.Names {
		if n == "" {
			return false
		}
	}
	return true
}

func (l TypeSubstitutionList) String() string {
	return "{" + strings.Join(l.Names, ",") + "}"
}
