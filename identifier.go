package jsonapi

// TypeNamer is implemented by identifier tags. A tag is usually an empty
// struct whose only job is to name a JSON:API resource type:
//
//	type ArticleTag struct{}
//	func (ArticleTag) TypeName() string { return "articles" }
type TypeNamer interface {
	TypeName() string
}

// ID is a resource identifier tagged with its resource type. IDs of different
// tags are distinct Go types, so a comment id cannot be passed where an
// article id is expected. The zero value is unidentified.
type ID[T TypeNamer] struct {
	raw        string
	identified bool
}

// NewID returns an identified ID holding raw.
func NewID[T TypeNamer](raw string) ID[T] { return ID[T]{raw: raw, identified: true} }

// Unidentified returns an ID for a resource that has no server-assigned id yet.
func Unidentified[T TypeNamer]() ID[T] { return ID[T]{} }

// Raw returns the raw id and whether the ID is identified.
func (id ID[T]) Raw() (string, bool) { return id.raw, id.identified }

func (id ID[T]) IsIdentified() bool { return id.identified }

// TypeName returns the resource type name of the tag T.
func (id ID[T]) TypeName() string {
	var tag T
	return tag.TypeName()
}

// Identifier erases the tag. Unidentified IDs produce an empty ID field.
func (id ID[T]) Identifier() Identifier {
	return Identifier{Type: id.TypeName(), ID: id.raw}
}

// Equal reports whether both IDs are in the same state with the same raw id.
func (id ID[T]) Equal(o ID[T]) bool { return id == o }

func (id ID[T]) String() string {
	if !id.identified {
		return id.TypeName() + ":<unidentified>"
	}
	return id.TypeName() + ":" + id.raw
}

// Identifier is the untyped (type, id) pair used for resource linkage.
type Identifier struct {
	Type string
	ID   string
}

func (i Identifier) String() string { return i.Type + ":" + i.ID }
