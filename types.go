package jsonapi

// UnknownPolicy controls how undeclared members are handled while decoding
// resource objects, attribute sets and relationship sets.
type UnknownPolicy int

const (
	UnknownStrip  UnknownPolicy = iota // Drop unknown keys (JSON:API default behavior).
	UnknownStrict                      // Reject unknown keys with an error.
)

// IncludePolicy decides what happens after an included element matched a
// candidate's type name but failed to decode as that candidate.
type IncludePolicy int

const (
	// IncludeStopOnTypeMatch ends the search for the element; later candidates
	// are not tried.
	IncludeStopOnTypeMatch IncludePolicy = iota
	// IncludeTryAll keeps trying the remaining candidates in order.
	IncludeTryAll
)

// Strictness configures enforcement for duplicate keys.
type Strictness struct {
	OnDuplicateKey Severity // Ignore, Warn or Error (duplicate JSON keys).
}

// Severity expresses the severity level for issues.
type Severity int

const (
	Ignore Severity = iota
	Warn
	Error
)

// DecodeOpt bundles decoding options.
type DecodeOpt struct {
	Strictness Strictness
	MaxDepth   int   // 0 disables the nesting check.
	MaxBytes   int64 // 0 disables the size check.
	// UnknownFields applies to undeclared attribute, relationship and
	// resource/document members.
	UnknownFields UnknownPolicy
	Includes      IncludePolicy
	// FailFast stops collecting issues at the first failing member.
	FailFast bool
}

// EncodeOpt bundles encoding options.
type EncodeOpt struct {
	// Fieldsets restricts attributes per resource type name
	// (JSON:API fields[type]=a,b).
	Fieldsets Fieldsets
	// Indent pretty-prints the output with the given indentation when non-empty.
	Indent string
}

func lastDecodeOpt(opts []DecodeOpt) DecodeOpt {
	if len(opts) == 0 {
		return DecodeOpt{}
	}
	return opts[len(opts)-1]
}

func lastEncodeOpt(opts []EncodeOpt) EncodeOpt {
	if len(opts) == 0 {
		return EncodeOpt{}
	}
	return opts[len(opts)-1]
}
