package metaschema

// Data types accepted in as-type attributes.
const (
	String             = "string"
	Token              = "token"
	UUID               = "uuid"
	URI                = "uri"
	URIReference       = "uri-reference"
	DateTime           = "date-time-with-timezone"
	Date               = "date"
	Integer            = "integer"
	PositiveInteger    = "positive-integer"
	NonNegativeInteger = "non-negative-integer"
	Boolean            = "boolean"
	MarkupLine         = "markup-line"
	MarkupMultiline    = "markup-multiline"
)

var datatypes = map[string]bool{
	String: true, Token: true, UUID: true, URI: true, URIReference: true,
	DateTime: true, Date: true, Integer: true, PositiveInteger: true,
	NonNegativeInteger: true, Boolean: true, MarkupLine: true, MarkupMultiline: true,
}

// KnownType reports whether t is a supported data type.
func KnownType(t string) bool {
	return datatypes[t]
}

// IsMarkup reports whether values of type t are XHTML fragments.
func IsMarkup(t string) bool {
	return t == MarkupLine || t == MarkupMultiline
}

// IsInteger reports whether t is one of the integer types.
func IsInteger(t string) bool {
	return t == Integer || t == PositiveInteger || t == NonNegativeInteger
}

// UUIDPattern matches RFC 4122 version 4 and 5 identifiers.
const UUIDPattern = `^[0-9A-Fa-f]{8}-[0-9A-Fa-f]{4}-[45][0-9A-Fa-f]{3}-[89ABab][0-9A-Fa-f]{3}-[0-9A-Fa-f]{12}$`

// TokenPattern matches a non-colonized name.
const TokenPattern = `^(\p{L}|_)(\p{L}|\p{N}|[.\-_])*$`

// blockElements make up markup-multiline content, in the order used by
// generated schemas.
var blockElements = []string{"h1", "h2", "h3", "h4", "h5", "h6", "p", "ul", "ol", "pre", "hr", "blockquote", "table", "img"}

// BlockElements returns the element names allowed at the top level of
// markup-multiline content.
func BlockElements() []string {
	return append([]string(nil), blockElements...)
}

// IsBlockElement reports whether name may start markup-multiline content.
func IsBlockElement(name string) bool {
	for _, b := range blockElements {
		if b == name {
			return true
		}
	}
	return false
}
