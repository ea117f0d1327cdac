package schema

// ColumnType enumerates the CSS 3.0 field types a Column can declare.
// Numeric null values carry meaning for every type except String/Bool —
// callers compare decoded values against the declared Null literal to
// decide whether a field is "unknown", the same contract spec.md
// insists on for nulls across the table family.
type ColumnType int

const (
	String ColumnType = iota
	Double
	Float
	Int
	Long
	Time
	Date
	LoadDate
	QuarkInterned
	Bool
	JulianDate
)

func (t ColumnType) String() string {
	switch t {
	case String:
		return "String"
	case Double:
		return "Double"
	case Float:
		return "Float"
	case Int:
		return "Int"
	case Long:
		return "Long"
	case Time:
		return "Time"
	case Date:
		return "Date"
	case LoadDate:
		return "LoadDate"
	case QuarkInterned:
		return "QuarkInterned"
	case Bool:
		return "Bool"
	case JulianDate:
		return "JulianDate"
	default:
		return "Unknown"
	}
}

// Column describes one fixed-size field of a schema: the Go struct
// field it is bound to (FieldName, empty for a dynamic/extra column
// backed only by a Record's property map), its Offset (the sum of the
// preceding columns' Size, separating spaces not counted) and Size,
// the printf-family Format/Scan specs used
// by the text codec, its Type, and the literal that marks it null.
type Column struct {
	Name      string
	FieldName string
	Offset    int
	Size     int
	Format    string
	Scan      string
	Type      ColumnType
	Null      string
	Extra     bool
}
