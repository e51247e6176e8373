package kotlinmeta

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// FieldType tells the dumper how to print a field's payload.
type FieldType int

const (
	TypeInt32 FieldType = iota
	TypeBool
	TypeEnum
	TypeString
	TypeMessage
	// TypePackedInt32 accepts both packed and unpacked encodings.
	TypePackedInt32
)

// Field describes one message field.
type Field struct {
	Name    string
	Type    FieldType
	Message *Schema
	Enum    map[int32]string
}

// Schema names the fields of one message type. Fields missing from a schema
// are printed by number.
type Schema struct {
	Name   string
	Fields map[protowire.Number]Field
}

func (s *Schema) field(num protowire.Number) (Field, bool) {
	if s == nil {
		return Field{}, false
	}
	f, ok := s.Fields[num]
	return f, ok
}

// Registry holds extension fields keyed by the schema they extend.
// Extensions print as "[full.name]" the way protobuf text format does.
type Registry struct {
	extensions map[string]map[protowire.Number]Field
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{extensions: make(map[string]map[protowire.Number]Field)}
}

// Register adds an extension of the named message.
func (r *Registry) Register(extendee string, num protowire.Number, f Field) {
	m, ok := r.extensions[extendee]
	if !ok {
		m = make(map[protowire.Number]Field)
		r.extensions[extendee] = m
	}
	m[num] = f
}

func (r *Registry) lookup(s *Schema, num protowire.Number) (Field, bool) {
	if r == nil || s == nil {
		return Field{}, false
	}
	f, ok := r.extensions[s.Name][num]
	return f, ok
}

// Schemas bundles the message types a dump starts from.
type Schemas struct {
	StringTableTypes *Schema
	Class            *Schema
	Package          *Schema
}

const jvmExtPrefix = "[org.jetbrains.kotlin.metadata.jvm."

func int32Field(name string) Field { return Field{Name: name, Type: TypeInt32} }
func packedField(name string) Field { return Field{Name: name, Type: TypePackedInt32} }
func msgField(name string, s *Schema) Field { return Field{Name: name, Type: TypeMessage, Message: s} }

// DefaultSchemas returns the metadata message types and a registry of the
// JVM extensions.
func DefaultSchemas() (*Schemas, *Registry) {
	operation := map[int32]string{0: "NONE", 1: "INTERNAL_TO_CLASS_ID", 2: "DESC_TO_CLASS_ID"}
	variance := map[int32]string{0: "IN", 1: "OUT", 2: "INV"}
	projection := map[int32]string{0: "IN", 1: "OUT", 2: "INV", 3: "STAR"}

	record := &Schema{Name: "StringTableTypes.Record", Fields: map[protowire.Number]Field{
		1: int32Field("range"),
		2: int32Field("predefined_index"),
		6: {Name: "string", Type: TypeString},
		3: {Name: "operation", Type: TypeEnum, Enum: operation},
		4: packedField("substring_index"),
		5: packedField("replace_char"),
	}}
	stringTable := &Schema{Name: "StringTableTypes", Fields: map[protowire.Number]Field{
		1: msgField("record", record),
		5: packedField("local_name"),
	}}

	typ := &Schema{Name: "Type", Fields: map[protowire.Number]Field{}}
	argument := &Schema{Name: "Type.Argument", Fields: map[protowire.Number]Field{
		1: {Name: "projection", Type: TypeEnum, Enum: projection},
		2: msgField("type", typ),
		3: int32Field("type_id"),
	}}
	typ.Fields[2] = int32Field("flags")
	typ.Fields[1] = msgField("argument", argument)
	typ.Fields[3] = Field{Name: "nullable", Type: TypeBool}
	typ.Fields[4] = int32Field("flexible_type_capabilities_id")
	typ.Fields[5] = msgField("flexible_upper_bound", typ)
	typ.Fields[8] = int32Field("flexible_upper_bound_id")
	typ.Fields[6] = int32Field("class_name")
	typ.Fields[7] = int32Field("type_parameter")
	typ.Fields[9] = int32Field("type_parameter_name")
	typ.Fields[12] = int32Field("type_alias_name")
	typ.Fields[10] = msgField("outer_type", typ)
	typ.Fields[11] = int32Field("outer_type_id")
	typ.Fields[13] = msgField("abbreviated_type", typ)
	typ.Fields[14] = int32Field("abbreviated_type_id")

	typeTable := &Schema{Name: "TypeTable", Fields: map[protowire.Number]Field{
		1: msgField("type", typ),
		2: int32Field("first_nullable"),
	}}
	typeParameter := &Schema{Name: "TypeParameter", Fields: map[protowire.Number]Field{
		1: int32Field("id"),
		2: int32Field("name"),
		3: {Name: "reified", Type: TypeBool},
		4: {Name: "variance", Type: TypeEnum, Enum: variance},
		5: msgField("upper_bound", typ),
		6: packedField("upper_bound_id"),
	}}
	valueParameter := &Schema{Name: "ValueParameter", Fields: map[protowire.Number]Field{
		1: int32Field("flags"),
		2: int32Field("name"),
		3: msgField("type", typ),
		5: int32Field("type_id"),
		4: msgField("vararg_element_type", typ),
		6: int32Field("vararg_element_type_id"),
	}}
	constructor := &Schema{Name: "Constructor", Fields: map[protowire.Number]Field{
		1:  int32Field("flags"),
		2:  msgField("value_parameter", valueParameter),
		31: packedField("version_requirement"),
	}}
	function := &Schema{Name: "Function", Fields: map[protowire.Number]Field{
		9:  int32Field("flags"),
		1:  int32Field("old_flags"),
		2:  int32Field("name"),
		3:  msgField("return_type", typ),
		7:  int32Field("return_type_id"),
		4:  msgField("type_parameter", typeParameter),
		5:  msgField("receiver_type", typ),
		8:  int32Field("receiver_type_id"),
		6:  msgField("value_parameter", valueParameter),
		30: msgField("type_table", typeTable),
		31: packedField("version_requirement"),
	}}
	property := &Schema{Name: "Property", Fields: map[protowire.Number]Field{
		11: int32Field("flags"),
		1:  int32Field("old_flags"),
		2:  int32Field("name"),
		3:  msgField("return_type", typ),
		9:  int32Field("return_type_id"),
		4:  msgField("type_parameter", typeParameter),
		5:  msgField("receiver_type", typ),
		10: int32Field("receiver_type_id"),
		6:  msgField("setter_value_parameter", valueParameter),
		7:  int32Field("getter_flags"),
		8:  int32Field("setter_flags"),
		31: packedField("version_requirement"),
	}}
	typeAlias := &Schema{Name: "TypeAlias", Fields: map[protowire.Number]Field{
		1: int32Field("flags"),
		2: int32Field("name"),
		3: msgField("type_parameter", typeParameter),
		4: msgField("underlying_type", typ),
		5: int32Field("underlying_type_id"),
		6: msgField("expanded_type", typ),
		7: int32Field("expanded_type_id"),
	}}
	enumEntry := &Schema{Name: "EnumEntry", Fields: map[protowire.Number]Field{
		1: int32Field("name"),
	}}

	class := &Schema{Name: "Class", Fields: map[protowire.Number]Field{
		1:  int32Field("flags"),
		3:  int32Field("fq_name"),
		4:  int32Field("companion_object_name"),
		5:  msgField("type_parameter", typeParameter),
		6:  msgField("supertype", typ),
		2:  packedField("supertype_id"),
		7:  packedField("nested_class_name"),
		8:  msgField("constructor", constructor),
		9:  msgField("function", function),
		10: msgField("property", property),
		11: msgField("type_alias", typeAlias),
		13: msgField("enum_entry", enumEntry),
		16: packedField("sealed_subclass_fq_name"),
		17: int32Field("inline_class_underlying_property_name"),
		18: msgField("inline_class_underlying_type", typ),
		19: int32Field("inline_class_underlying_type_id"),
		30: msgField("type_table", typeTable),
		31: packedField("version_requirement"),
	}}
	pkg := &Schema{Name: "Package", Fields: map[protowire.Number]Field{
		3:  msgField("function", function),
		4:  msgField("property", property),
		5:  msgField("type_alias", typeAlias),
		30: msgField("type_table", typeTable),
	}}

	methodSignature := &Schema{Name: "JvmMethodSignature", Fields: map[protowire.Number]Field{
		1: int32Field("name"),
		2: int32Field("desc"),
	}}
	fieldSignature := &Schema{Name: "JvmFieldSignature", Fields: map[protowire.Number]Field{
		1: int32Field("name"),
		2: int32Field("desc"),
	}}
	propertySignature := &Schema{Name: "JvmPropertySignature", Fields: map[protowire.Number]Field{
		1: msgField("field", fieldSignature),
		2: msgField("synthetic_method", methodSignature),
		3: msgField("getter", methodSignature),
		4: msgField("setter", methodSignature),
		5: msgField("delegate_method", methodSignature),
	}}

	reg := NewRegistry()
	ext := func(extendee string, num protowire.Number, f Field) {
		f.Name = jvmExtPrefix + f.Name + "]"
		reg.Register(extendee, num, f)
	}
	ext("Class", 100, int32Field("class_module_name"))
	ext("Class", 101, msgField("class_local_variable", property))
	ext("Class", 102, int32Field("anonymous_object_origin_name"))
	ext("Class", 104, int32Field("jvm_class_flags"))
	ext("Package", 100, int32Field("package_module_name"))
	ext("Package", 101, msgField("package_local_variable", property))
	ext("Constructor", 100, msgField("constructor_signature", methodSignature))
	ext("Function", 100, msgField("method_signature", methodSignature))
	ext("Function", 101, int32Field("lambda_class_origin_name"))
	ext("Property", 100, msgField("property_signature", propertySignature))
	ext("Property", 101, int32Field("flags"))
	ext("Type", 101, Field{Name: "is_raw", Type: TypeBool})

	return &Schemas{StringTableTypes: stringTable, Class: class, Package: pkg}, reg
}
